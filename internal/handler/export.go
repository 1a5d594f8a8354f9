package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/middleware"
)

// csvHeaders defines the column names written as the first row of a CSV manifest.
var csvHeaders = []string{
	"trip_id", "trip_name", "trip_location", "trip_start_date", "trip_end_date",
	"photo_id", "day", "captured_at", "latitude", "longitude",
	"caption", "tags",
}

// exportRowResponse is one JSON manifest row. Photo fields are null on the
// single row emitted for a trip without photos.
type exportRowResponse struct {
	TripID        uuid.UUID          `json:"trip_id"`
	TripName      string             `json:"trip_name"`
	TripLocation  *string            `json:"trip_location"`
	TripStartDate openapi_types.Date `json:"trip_start_date"`
	TripEndDate   openapi_types.Date `json:"trip_end_date"`
	PhotoID       *uuid.UUID         `json:"photo_id"`
	Day           *string            `json:"day"`
	CapturedAt    *time.Time         `json:"captured_at"`
	Latitude      *float64           `json:"latitude"`
	Longitude     *float64           `json:"longitude"`
	Caption       *string            `json:"caption"`
	Tags          []string           `json:"tags"`
}

// ExportTrip handles GET /api/trips/{id}/export.
// It returns the trip's photo manifest, one row per photo.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportTrip(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		badRequest(w, fmt.Sprintf("invalid format for parameter format: %s", err))
		return
	}
	wantCSV := format != nil && *format == "csv"
	if format != nil && !wantCSV && *format != "json" {
		badRequest(w, `format must be "csv" or "json"`)
		return
	}

	rows, err := s.photos.Export(r.Context(), middleware.UserIDFromContext(r.Context()), tripID)
	if err != nil {
		writeServiceError(w, r, err, "trip")
		return
	}

	if wantCSV {
		writeCSV(w, tripID, rows)
		return
	}
	out := make([]exportRowResponse, len(rows))
	for i, row := range rows {
		out[i] = rowToResponse(row)
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV encodes rows as CSV with a download filename.
// Tags within a row are pipe-separated ("|") to keep each photo on one line.
func writeCSV(w http.ResponseWriter, tripID uuid.UUID, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, row := range rows {
		//nolint:errcheck
		cw.Write(rowToCSVRecord(row))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%s.csv"`, tripID))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func rowToResponse(r domain.ExportRow) exportRowResponse {
	out := exportRowResponse{
		TripID:        r.TripID,
		TripName:      r.TripName,
		TripLocation:  nonEmpty(&r.TripLocation),
		TripStartDate: openapi_types.Date{Time: r.TripStartDate},
		TripEndDate:   openapi_types.Date{Time: r.TripEndDate},
		CapturedAt:    r.CapturedAt,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Caption:       nonEmpty(&r.Caption),
		Tags:          r.Tags,
	}
	if r.PhotoID != uuid.Nil {
		id := r.PhotoID
		out.PhotoID = &id
		day := r.Day
		out.Day = &day
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

// rowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Missing values are encoded as empty strings.
func rowToCSVRecord(r domain.ExportRow) []string {
	photoID := ""
	if r.PhotoID != uuid.Nil {
		photoID = r.PhotoID.String()
	}
	return []string{
		r.TripID.String(),
		r.TripName,
		r.TripLocation,
		r.TripStartDate.Format(time.DateOnly),
		r.TripEndDate.Format(time.DateOnly),
		photoID,
		r.Day,
		formatOptionalTime(r.CapturedAt),
		formatOptionalFloat(r.Latitude),
		formatOptionalFloat(r.Longitude),
		r.Caption,
		strings.Join(r.Tags, "|"),
	}
}

// formatOptionalTime returns the RFC3339 representation of t, or "" if t is nil.
func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
