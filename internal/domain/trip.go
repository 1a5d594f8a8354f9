// Package domain contains the core data types for the Footsteps API.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the top-level aggregate: a named, dated journey owned by one user.
// Photos belong to a trip and inherit its owner.
//
// Description doubles as the trip's "location" in the UI.
// CoverRef is either an object-storage key or a legacy absolute http(s) URL;
// it is never a signed URL.
type Trip struct {
	ID          uuid.UUID
	UserID      string
	Name        string
	Description *string
	StartDate   time.Time
	EndDate     time.Time
	CoverRef    *string
	CreatedAt   time.Time

	// CoverURL is the viewable URL for CoverRef, filled in per request.
	// It is never persisted.
	CoverURL string
}

// Location returns the description, or "" when the trip has none.
func (t Trip) Location() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// TripPatch is a partial update to a Trip. A nil field is left untouched.
// An empty CoverRef clears the cover.
type TripPatch struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	CoverRef    *string
}

// IsEmpty reports whether the patch carries no fields at all.
func (p TripPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.StartDate == nil &&
		p.EndDate == nil && p.CoverRef == nil
}

// Apply returns a copy of t with every present patch field applied.
func (p TripPatch) Apply(t Trip) Trip {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		d := *p.Description
		t.Description = &d
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.CoverRef != nil {
		if *p.CoverRef == "" {
			t.CoverRef = nil
		} else {
			c := *p.CoverRef
			t.CoverRef = &c
		}
	}
	return t
}
