// Package service contains the business logic for the Footsteps API.
// Services validate inputs, enforce ownership, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/footsteps/internal/access"
	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/repo"
	"github.com/pkordes/footsteps/internal/storage"
)

// URLResolver turns stored image references into viewable URLs.
// *storage.Resolver satisfies it.
type URLResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
	ResolveAll(ctx context.Context, refs []string) ([]string, error)
}

// TripService implements business logic for Trip operations.
type TripService struct {
	repo repo.TripRepo
	urls URLResolver
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo, urls URLResolver) *TripService {
	return &TripService{repo: r, urls: urls}
}

// Create validates and persists a new trip owned by requesterID.
func (s *TripService) Create(ctx context.Context, requesterID string, trip domain.Trip) (domain.Trip, error) {
	if err := access.RequireRequester(requesterID); err != nil {
		return domain.Trip{}, err
	}

	trip.UserID = requesterID
	trip.Name = strings.TrimSpace(trip.Name)
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	created, err := s.repo.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return s.withCover(ctx, created)
}

// Get returns a single trip the requester owns, with its cover resolved.
func (s *TripService) Get(ctx context.Context, requesterID string, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.owned(ctx, requesterID, id)
	if err != nil {
		return domain.Trip{}, err
	}
	return s.withCover(ctx, trip)
}

// List returns one page of the requester's trips and their total count.
// All covers on the page are signed in a single batch.
func (s *TripService) List(ctx context.Context, requesterID string, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	if err := access.RequireRequester(requesterID); err != nil {
		return nil, 0, err
	}

	trips, total, err := s.repo.ListByOwner(ctx, requesterID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}

	if err := resolveCovers(ctx, s.urls, trips); err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, total, nil
}

// Update applies patch to a trip the requester owns and re-validates the
// merged result before saving.
func (s *TripService) Update(ctx context.Context, requesterID string, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	current, err := s.owned(ctx, requesterID, id)
	if err != nil {
		return domain.Trip{}, err
	}
	if patch.IsEmpty() {
		return domain.Trip{}, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	merged := patch.Apply(current)
	if err := validateTrip(merged); err != nil {
		return domain.Trip{}, err
	}

	updated, err := s.repo.Update(ctx, merged)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return s.withCover(ctx, updated)
}

// Delete removes a trip the requester owns along with its photos.
func (s *TripService) Delete(ctx context.Context, requesterID string, id uuid.UUID) error {
	if _, err := s.owned(ctx, requesterID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// owned fetches a trip and applies the guard: unauthenticated, then not
// found, then forbidden.
func (s *TripService) owned(ctx context.Context, requesterID string, id uuid.UUID) (domain.Trip, error) {
	return ownedTrip(ctx, s.repo, requesterID, id)
}

func (s *TripService) withCover(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if trip.CoverRef == nil {
		return trip, nil
	}
	u, err := s.urls.Resolve(ctx, *trip.CoverRef)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService: cover: %w", err)
	}
	trip.CoverURL = u
	return trip, nil
}

func ownedTrip(ctx context.Context, trips repo.TripRepo, requesterID string, id uuid.UUID) (domain.Trip, error) {
	if err := access.RequireRequester(requesterID); err != nil {
		return domain.Trip{}, err
	}
	trip, err := trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s: %w", id, err)
	}
	if err := access.AuthorizeTrip(requesterID, trip); err != nil {
		return domain.Trip{}, err
	}
	return trip, nil
}

// resolveCovers fills CoverURL on every trip that has a cover, in place.
func resolveCovers(ctx context.Context, urls URLResolver, trips []domain.Trip) error {
	var (
		refs []string
		idx  []int
	)
	for i, t := range trips {
		if t.CoverRef != nil {
			refs = append(refs, *t.CoverRef)
			idx = append(idx, i)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	resolved, err := urls.ResolveAll(ctx, refs)
	if err != nil {
		return fmt.Errorf("covers: %w", err)
	}
	for j, i := range idx {
		trips[i].CoverURL = resolved[j]
	}
	return nil
}

// validateTrip enforces the business rules for a trip.
func validateTrip(t domain.Trip) error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: start_date must be on or before end_date", domain.ErrValidation)
	}
	if t.CoverRef != nil {
		if err := validateCoverRef(*t.CoverRef); err != nil {
			return err
		}
	}
	return nil
}

// validateCoverRef accepts an object key (no scheme) or an http(s) URL.
func validateCoverRef(ref string) error {
	u, err := url.Parse(ref)
	if err != nil {
		return fmt.Errorf("%w: cover_photo_url is malformed", domain.ErrValidation)
	}
	if u.Scheme == "" {
		return nil
	}
	if !storage.IsAbsoluteURL(ref) || u.Host == "" {
		return fmt.Errorf("%w: cover_photo_url must be an http or https URL", domain.ErrValidation)
	}
	return nil
}
