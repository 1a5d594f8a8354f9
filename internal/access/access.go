// Package access decides whether a requester may read or mutate a resource.
// Callers fetch the resource first, so a missing resource is reported as
// domain.ErrNotFound before ownership is ever considered.
package access

import (
	"fmt"

	"github.com/pkordes/footsteps/internal/domain"
)

// Authorize returns nil when requesterID owns the resource.
//
//   - empty requesterID → domain.ErrUnauthenticated
//   - requesterID != ownerID → domain.ErrForbidden
func Authorize(requesterID, ownerID string) error {
	if requesterID == "" {
		return domain.ErrUnauthenticated
	}
	if requesterID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}

// AuthorizeTrip is Authorize applied to a trip's owner.
func AuthorizeTrip(requesterID string, trip domain.Trip) error {
	if err := Authorize(requesterID, trip.UserID); err != nil {
		return fmt.Errorf("trip %s: %w", trip.ID, err)
	}
	return nil
}

// RequireRequester rejects an absent identity before any query runs.
func RequireRequester(requesterID string) error {
	if requesterID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}
