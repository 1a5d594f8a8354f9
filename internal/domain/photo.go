package domain

import (
	"time"

	"github.com/google/uuid"
)

// Photo is a single uploaded image or video. A photo has no owner of its own;
// ownership is always resolved through TripID.
//
// CapturedAt is when the picture was taken (from embedded metadata, may be
// nil). CreatedAt is when the record was ingested.
type Photo struct {
	ID         uuid.UUID
	TripID     uuid.UUID
	StorageKey string
	CapturedAt *time.Time
	Latitude   *float64
	Longitude  *float64
	Caption    *string
	Tags       []string
	CreatedAt  time.Time

	// ViewURL is a short-lived signed URL for StorageKey, filled in per request.
	ViewURL string
}

// PhotoOrder selects the sort order of a photo listing.
type PhotoOrder int

const (
	// OrderCapturedDesc sorts by captured_at, newest first, undated last.
	OrderCapturedDesc PhotoOrder = iota
	// OrderCreatedDesc sorts by ingestion time, newest first.
	OrderCreatedDesc
	// OrderCapturedAsc sorts by captured_at, oldest first, undated last.
	OrderCapturedAsc
)

// PhotoFilter narrows a listing of an owner's photos.
// Zero value means "all of the owner's photos, newest taken first".
type PhotoFilter struct {
	// TripID restricts the listing to a single trip when non-nil.
	TripID *uuid.UUID
	// HasCapturedAt keeps only photos with a captured-at timestamp.
	HasCapturedAt bool
	// HasCoordinates keeps only photos with both latitude and longitude.
	HasCoordinates bool
	Order          PhotoOrder
	// Limit caps the number of rows; 0 means no limit.
	Limit int
}

// Upload is a raw file received for ingestion.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
