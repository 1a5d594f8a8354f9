package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/footsteps/internal/access"
	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/repo"
)

const (
	upcomingLimit       = 3
	recentActivityLimit = 3
	// recentPhotoWindow is how many of the newest ingested photos are
	// scanned when collapsing activity to trips.
	recentPhotoWindow = 50

	randomMemoryMessage = "A random memory from your travels"
	noMemoriesMessage   = "No memories yet. Start your first trip!"
	unnamedPlace        = "an adventure"
)

// DashboardService answers the read-only dashboard queries. Every query is
// filtered by the requester in the repo call itself.
type DashboardService struct {
	trips  repo.TripRepo
	photos repo.PhotoRepo
	urls   URLResolver
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(trips repo.TripRepo, photos repo.PhotoRepo, urls URLResolver) *DashboardService {
	return &DashboardService{trips: trips, photos: photos, urls: urls}
}

// Stats returns trip, photo and distinct-location counts. The three counts
// are fetched concurrently.
func (s *DashboardService) Stats(ctx context.Context, requesterID string) (domain.Stats, error) {
	if err := access.RequireRequester(requesterID); err != nil {
		return domain.Stats{}, err
	}

	var st domain.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalTrips, err = s.trips.CountByOwner(gctx, requesterID)
		return err
	})
	g.Go(func() (err error) {
		st.TotalPhotos, err = s.photos.CountByOwner(gctx, requesterID)
		return err
	})
	g.Go(func() (err error) {
		st.TotalLocations, err = s.trips.CountLocations(gctx, requesterID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Stats{}, fmt.Errorf("service.DashboardService.Stats: %w", err)
	}
	return st, nil
}

// OnThisDay finds the newest photo taken on now's month and day in an
// earlier year. Without one it falls back to the newest dated photo, and
// without any dated photo it reports the empty state.
func (s *DashboardService) OnThisDay(ctx context.Context, requesterID string, now time.Time) (domain.Memory, error) {
	if err := access.RequireRequester(requesterID); err != nil {
		return domain.Memory{}, err
	}

	photos, err := s.photos.ListByOwner(ctx, requesterID, domain.PhotoFilter{
		HasCapturedAt: true,
		Order:         domain.OrderCapturedDesc,
	})
	if err != nil {
		return domain.Memory{}, fmt.Errorf("service.DashboardService.OnThisDay: %w", err)
	}
	if len(photos) == 0 {
		return domain.Memory{Message: noMemoriesMessage}, nil
	}

	photo, years, found := findAnniversary(photos, now)
	if !found {
		photo = photos[0]
	}

	mp, err := s.memoryPhoto(ctx, photo)
	if err != nil {
		return domain.Memory{}, fmt.Errorf("service.DashboardService.OnThisDay: %w", err)
	}

	if !found {
		return domain.Memory{Photo: &mp, IsRandom: true, Message: randomMemoryMessage}, nil
	}
	return domain.Memory{
		Photo:    &mp,
		YearsAgo: years,
		Message:  anniversaryMessage(years, mp.TripLocation),
	}, nil
}

// Upcoming returns the next trips starting strictly after now, soonest
// first, each with a whole-day countdown rounded up.
func (s *DashboardService) Upcoming(ctx context.Context, requesterID string, now time.Time) ([]domain.UpcomingTrip, error) {
	if err := access.RequireRequester(requesterID); err != nil {
		return nil, err
	}

	trips, err := s.trips.ListUpcoming(ctx, requesterID, now, upcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("service.DashboardService.Upcoming: %w", err)
	}

	out := make([]domain.UpcomingTrip, 0, len(trips))
	for _, t := range trips {
		out = append(out, domain.UpcomingTrip{
			ID:        t.ID,
			Name:      t.Name,
			Location:  t.Description,
			StartDate: t.StartDate,
			EndDate:   t.EndDate,
			DaysUntil: daysUntil(t.StartDate, now),
		})
	}
	return out, nil
}

// RecentActivity returns the trips the requester most recently added photos
// to. A requester with no photos gets their most recently created trips.
func (s *DashboardService) RecentActivity(ctx context.Context, requesterID string) ([]domain.RecentActivity, error) {
	if err := access.RequireRequester(requesterID); err != nil {
		return nil, err
	}

	photos, err := s.photos.ListByOwner(ctx, requesterID, domain.PhotoFilter{
		Order: domain.OrderCreatedDesc,
		Limit: recentPhotoWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("service.DashboardService.RecentActivity: %w", err)
	}

	var out []domain.RecentActivity
	if len(photos) == 0 {
		out, err = s.recentlyCreated(ctx, requesterID)
	} else {
		out, err = s.recentlyTouched(ctx, photos)
	}
	if err != nil {
		return nil, fmt.Errorf("service.DashboardService.RecentActivity: %w", err)
	}
	return out, nil
}

func (s *DashboardService) recentlyCreated(ctx context.Context, requesterID string) ([]domain.RecentActivity, error) {
	trips, err := s.trips.ListRecentlyCreated(ctx, requesterID, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	if err := resolveCovers(ctx, s.urls, trips); err != nil {
		return nil, err
	}

	out := make([]domain.RecentActivity, 0, len(trips))
	for _, t := range trips {
		out = append(out, activityFor(t, t.CreatedAt))
	}
	return out, nil
}

func (s *DashboardService) recentlyTouched(ctx context.Context, photos []domain.Photo) ([]domain.RecentActivity, error) {
	touched := collapseByTrip(photos, recentActivityLimit)

	trips := make([]domain.Trip, 0, len(touched))
	at := make([]time.Time, 0, len(touched))
	for _, tt := range touched {
		t, err := s.trips.GetByID(ctx, tt.tripID)
		if errors.Is(err, domain.ErrNotFound) {
			// deleted since the photo listing
			continue
		}
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
		at = append(at, tt.lastActivity)
	}
	if err := resolveCovers(ctx, s.urls, trips); err != nil {
		return nil, err
	}

	out := make([]domain.RecentActivity, 0, len(trips))
	for i, t := range trips {
		out = append(out, activityFor(t, at[i]))
	}
	return out, nil
}

func (s *DashboardService) memoryPhoto(ctx context.Context, p domain.Photo) (domain.MemoryPhoto, error) {
	trip, err := s.trips.GetByID(ctx, p.TripID)
	if err != nil {
		return domain.MemoryPhoto{}, fmt.Errorf("trip %s: %w", p.TripID, err)
	}
	u, err := s.urls.Resolve(ctx, p.StorageKey)
	if err != nil {
		return domain.MemoryPhoto{}, err
	}
	return domain.MemoryPhoto{
		ID:           p.ID,
		ViewURL:      u,
		CapturedAt:   p.CapturedAt,
		TripName:     trip.Name,
		TripLocation: trip.Description,
	}, nil
}

// findAnniversary scans photos (newest taken first) for the first one taken
// on now's month and day in an earlier year. Dates are compared in now's
// location.
func findAnniversary(photos []domain.Photo, now time.Time) (domain.Photo, int, bool) {
	_, month, day := now.Date()
	for _, p := range photos {
		if p.CapturedAt == nil {
			continue
		}
		y, m, d := p.CapturedAt.In(now.Location()).Date()
		if m == month && d == day && y < now.Year() {
			return p, now.Year() - y, true
		}
	}
	return domain.Photo{}, 0, false
}

func anniversaryMessage(years int, location *string) string {
	place := unnamedPlace
	if location != nil && *location != "" {
		place = *location
	}
	unit := "year"
	if years > 1 {
		unit = "years"
	}
	return fmt.Sprintf("%d %s ago today, you were in %s", years, unit, place)
}

// daysUntil is ceil((start - now) / 24h).
func daysUntil(start, now time.Time) int {
	const day = 24 * time.Hour
	d := start.Sub(now)
	n := int(d / day)
	if d%day > 0 {
		n++
	}
	return n
}

type tripTouch struct {
	tripID       uuid.UUID
	lastActivity time.Time
}

// collapseByTrip keeps the first limit distinct trips of photos (newest
// ingested first), each with its newest photo's ingestion time.
func collapseByTrip(photos []domain.Photo, limit int) []tripTouch {
	seen := make(map[uuid.UUID]struct{}, limit)
	out := make([]tripTouch, 0, limit)
	for _, p := range photos {
		if _, ok := seen[p.TripID]; ok {
			continue
		}
		seen[p.TripID] = struct{}{}
		out = append(out, tripTouch{tripID: p.TripID, lastActivity: p.CreatedAt})
		if len(out) == limit {
			break
		}
	}
	return out
}

func activityFor(t domain.Trip, at time.Time) domain.RecentActivity {
	return domain.RecentActivity{
		Trip:           t,
		LastActivityAt: at,
		Message:        "Continue editing " + t.Name,
	}
}
