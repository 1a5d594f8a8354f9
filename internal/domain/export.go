package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExportRow is a single row in a trip's photo manifest.
// It is a flat, denormalized view: one row per photo, with trip fields
// repeated on every row. A trip with no photos yields one row with zero
// values for all photo fields.
//
// Day is the photo's day-group label, UnknownDateLabel for undated photos.
// The manifest never carries signed URLs.
type ExportRow struct {
	// Trip fields, repeated for every photo on the trip.
	TripID        uuid.UUID
	TripName      string
	TripLocation  string
	TripStartDate time.Time
	TripEndDate   time.Time

	// Photo fields, zero values when the trip has no photos.
	PhotoID    uuid.UUID
	Day        string
	CapturedAt *time.Time
	Latitude   *float64
	Longitude  *float64
	Caption    string
	Tags       []string
}

// ExportRows flattens grouped photos into manifest rows in group order.
func ExportRows(trip Trip, groups []DayGroup) []ExportRow {
	base := ExportRow{
		TripID:        trip.ID,
		TripName:      trip.Name,
		TripLocation:  trip.Location(),
		TripStartDate: trip.StartDate,
		TripEndDate:   trip.EndDate,
	}

	var rows []ExportRow
	for _, g := range groups {
		for _, p := range g.Photos {
			row := base
			row.PhotoID = p.ID
			row.Day = g.Label
			row.CapturedAt = p.CapturedAt
			row.Latitude = p.Latitude
			row.Longitude = p.Longitude
			if p.Caption != nil {
				row.Caption = *p.Caption
			}
			row.Tags = p.Tags
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, base)
	}
	return rows
}
