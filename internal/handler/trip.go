package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/middleware"
)

// tripResponse is the JSON shape of a trip. CoverPhotoURL is the viewable
// (possibly signed) URL, never the stored reference.
type tripResponse struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	CoverPhotoURL *string   `json:"cover_photo_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// createTripRequest is the POST /api/trips body. cover_photo_url takes
// an object key or an absolute http(s) URL.
type createTripRequest struct {
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	StartDate     timestamp `json:"start_date"`
	EndDate       timestamp `json:"end_date"`
	CoverPhotoURL *string   `json:"cover_photo_url"`
}

// updateTripRequest is the PATCH /api/trips/{id} body. Absent or null
// fields are left untouched; an empty cover_photo_url clears the cover.
type updateTripRequest struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	StartDate     *timestamp `json:"start_date"`
	EndDate       *timestamp `json:"end_date"`
	CoverPhotoURL *string    `json:"cover_photo_url"`
}

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type tripListResponse struct {
	Data       []tripResponse `json:"data"`
	Pagination pagination     `json:"pagination"`
}

// CreateTrip handles POST /api/trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body createTripRequest
	if !readJSON(w, r, &body) {
		return
	}

	trip := domain.Trip{
		Name:        body.Name,
		Description: body.Description,
		StartDate:   body.StartDate.Time,
		EndDate:     body.EndDate.Time,
		CoverRef:    nonEmpty(body.CoverPhotoURL),
	}

	created, err := s.trips.Create(r.Context(), middleware.UserIDFromContext(r.Context()), trip)
	if err != nil {
		writeServiceError(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /api/trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	params, err := paginationParams(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	trips, total, err := s.trips.List(r.Context(), middleware.UserIDFromContext(r.Context()), params)
	if err != nil {
		writeServiceError(w, r, err, "trip")
		return
	}

	data := make([]tripResponse, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, tripListResponse{
		Data: data,
		Pagination: pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      total,
			TotalPages: params.TotalPages(total),
		},
	})
}

// GetTrip handles GET /api/trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	trip, err := s.trips.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PATCH /api/trips/{id}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var body updateTripRequest
	if !readJSON(w, r, &body) {
		return
	}

	updated, err := s.trips.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id, requestToPatch(body))
	if err != nil {
		writeServiceError(w, r, err, "trip")
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /api/trips/{id}. The trip's photos go with it.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if err := s.trips.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		writeServiceError(w, r, err, "trip")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requestToPatch(body updateTripRequest) domain.TripPatch {
	patch := domain.TripPatch{
		Name:        body.Name,
		Description: body.Description,
		CoverRef:    body.CoverPhotoURL,
	}
	if body.StartDate != nil {
		patch.StartDate = &body.StartDate.Time
	}
	if body.EndDate != nil {
		patch.EndDate = &body.EndDate.Time
	}
	return patch
}

// tripToResponse maps a domain.Trip to its JSON shape.
func tripToResponse(t domain.Trip) tripResponse {
	return tripResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		Name:          t.Name,
		Description:   t.Description,
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		CoverPhotoURL: nonEmpty(&t.CoverURL),
		CreatedAt:     t.CreatedAt,
	}
}

// nonEmpty returns nil for a nil or blank string.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}
