// Package handler implements the HTTP handlers for the Footsteps API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, photo.go, dashboard.go, export.go) but share
// the same Server struct so they can reach its dependencies.
package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/footsteps/internal/domain"
)

// TripServicer defines the trip operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, requesterID string, trip domain.Trip) (domain.Trip, error)
	Get(ctx context.Context, requesterID string, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, requesterID string, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, requesterID string, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
	Delete(ctx context.Context, requesterID string, id uuid.UUID) error
}

// PhotoServicer defines the photo operations the handlers depend on.
type PhotoServicer interface {
	Upload(ctx context.Context, requesterID string, tripID uuid.UUID, up domain.Upload) (domain.Photo, error)
	Get(ctx context.Context, requesterID string, id uuid.UUID) (domain.Photo, error)
	UpdateCaption(ctx context.Context, requesterID string, id uuid.UUID, caption string) (domain.Photo, error)
	ListByTripGrouped(ctx context.Context, requesterID string, tripID uuid.UUID) ([]domain.DayGroup, error)
	ListMapped(ctx context.Context, requesterID string) ([]domain.Photo, error)
	Export(ctx context.Context, requesterID string, tripID uuid.UUID) ([]domain.ExportRow, error)
}

// DashboardServicer defines the dashboard read models the handlers depend on.
type DashboardServicer interface {
	Stats(ctx context.Context, requesterID string) (domain.Stats, error)
	OnThisDay(ctx context.Context, requesterID string, now time.Time) (domain.Memory, error)
	Upcoming(ctx context.Context, requesterID string, now time.Time) ([]domain.UpcomingTrip, error)
	RecentActivity(ctx context.Context, requesterID string) ([]domain.RecentActivity, error)
}

// Server holds the service dependencies shared by every handler.
type Server struct {
	trips     TripServicer
	photos    PhotoServicer
	dashboard DashboardServicer

	// now is the clock for date-relative dashboard queries.
	now func() time.Time
}

// NewServer constructs the Server with all its dependencies.
// Any of them may be nil in tests that exercise only some routes.
func NewServer(trips TripServicer, photos PhotoServicer, dashboard DashboardServicer) *Server {
	return &Server{
		trips:     trips,
		photos:    photos,
		dashboard: dashboard,
		now:       time.Now,
	}
}

// WithClock replaces the server's clock. Used by tests.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}
