package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stats is the headline dashboard summary for one user.
// TotalLocations counts distinct non-null trip descriptions, which stand in
// for visited places; no geocoding is involved.
type Stats struct {
	TotalTrips     int64
	TotalPhotos    int64
	TotalLocations int64
}

// MemoryPhoto is a photo shown on the dashboard with its trip context.
type MemoryPhoto struct {
	ID           uuid.UUID
	ViewURL      string
	CapturedAt   *time.Time
	TripName     string
	TripLocation *string
}

// Memory is the "on this day" result. Exactly one of three shapes:
//   - anniversary: Photo set, YearsAgo >= 1, IsRandom false;
//   - fallback: Photo set, IsRandom true;
//   - empty: Photo nil.
type Memory struct {
	Photo    *MemoryPhoto
	YearsAgo int
	IsRandom bool
	Message  string
}

// UpcomingTrip is a future trip annotated with a whole-day countdown.
type UpcomingTrip struct {
	ID        uuid.UUID
	Name      string
	Location  *string
	StartDate time.Time
	EndDate   time.Time
	DaysUntil int
}

// RecentActivity marks a trip the user last touched.
// LastActivityAt is the newest photo ingestion time for the trip, or the
// trip's own creation time when the user has no photos at all.
type RecentActivity struct {
	Trip           Trip
	LastActivityAt time.Time
	Message        string
}
