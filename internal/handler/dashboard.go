package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/middleware"
)

type statsResponse struct {
	TotalTrips     int64 `json:"total_trips"`
	TotalPhotos    int64 `json:"total_photos"`
	TotalLocations int64 `json:"total_locations"`
}

type memoryPhotoResponse struct {
	ID           uuid.UUID  `json:"id"`
	URL          string     `json:"url"`
	CapturedAt   *time.Time `json:"captured_at"`
	TripName     string     `json:"trip_name"`
	TripLocation *string    `json:"trip_location"`
}

type memoryResponse struct {
	Photo    *memoryPhotoResponse `json:"photo"`
	YearsAgo int                  `json:"years_ago"`
	IsRandom bool                 `json:"is_random"`
	Message  string               `json:"message"`
}

type upcomingTripResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  *string   `json:"location"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	DaysUntil int       `json:"days_until"`
}

type recentActivityResponse struct {
	Trip           tripResponse `json:"trip"`
	LastActivityAt time.Time    `json:"last_activity_at"`
	Message        string       `json:"message"`
}

// GetDashboardStats handles GET /api/dashboard/stats.
func (s *Server) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dashboard.Stats(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "dashboard")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalTrips:     stats.TotalTrips,
		TotalPhotos:    stats.TotalPhotos,
		TotalLocations: stats.TotalLocations,
	})
}

// GetOnThisDay handles GET /api/dashboard/on-this-day.
func (s *Server) GetOnThisDay(w http.ResponseWriter, r *http.Request) {
	mem, err := s.dashboard.OnThisDay(r.Context(), middleware.UserIDFromContext(r.Context()), s.now())
	if err != nil {
		writeServiceError(w, r, err, "dashboard")
		return
	}

	resp := memoryResponse{
		YearsAgo: mem.YearsAgo,
		IsRandom: mem.IsRandom,
		Message:  mem.Message,
	}
	if p := mem.Photo; p != nil {
		resp.Photo = &memoryPhotoResponse{
			ID:           p.ID,
			URL:          p.ViewURL,
			CapturedAt:   p.CapturedAt,
			TripName:     p.TripName,
			TripLocation: p.TripLocation,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUpcomingTrips handles GET /api/dashboard/upcoming.
func (s *Server) GetUpcomingTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.dashboard.Upcoming(r.Context(), middleware.UserIDFromContext(r.Context()), s.now())
	if err != nil {
		writeServiceError(w, r, err, "dashboard")
		return
	}

	out := make([]upcomingTripResponse, len(trips))
	for i, t := range trips {
		out[i] = upcomingTripResponse{
			ID:        t.ID,
			Name:      t.Name,
			Location:  t.Location,
			StartDate: t.StartDate,
			EndDate:   t.EndDate,
			DaysUntil: t.DaysUntil,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetRecentActivity handles GET /api/dashboard/recent-activity.
func (s *Server) GetRecentActivity(w http.ResponseWriter, r *http.Request) {
	items, err := s.dashboard.RecentActivity(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, "dashboard")
		return
	}

	out := make([]recentActivityResponse, len(items))
	for i, a := range items {
		out[i] = activityToResponse(a)
	}
	writeJSON(w, http.StatusOK, out)
}

func activityToResponse(a domain.RecentActivity) recentActivityResponse {
	return recentActivityResponse{
		Trip:           tripToResponse(a.Trip),
		LastActivityAt: a.LastActivityAt,
		Message:        a.Message,
	}
}
