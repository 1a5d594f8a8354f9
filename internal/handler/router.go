package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/footsteps/internal/middleware"
)

const (
	defaultMaxBodyBytes   = 1 << 20
	defaultMaxUploadBytes = 10 << 20
)

// RouterConfig carries everything NewRouter needs besides the Server.
type RouterConfig struct {
	Logger      *slog.Logger
	Verifier    middleware.TokenVerifier
	CORSOrigins []string

	// MaxBodyBytes caps JSON request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
	// MaxUploadBytes caps photo uploads. Defaults to 10 MiB.
	MaxUploadBytes int64
	// UploadLimiter throttles uploads per user. Nil disables it.
	UploadLimiter *middleware.RateLimiter

	// Metrics is served at /metrics when set.
	Metrics http.Handler
	// OpenAPI is served at /openapi.yaml when set.
	OpenAPI []byte
}

// NewRouter builds the full HTTP handler.
//
// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS.
// Everything under /api requires a bearer token; /healthz, /metrics and
// /openapi.yaml do not.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))

	r.Get("/healthz", s.GetHealth)
	if cfg.OpenAPI != nil {
		r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(cfg.OpenAPI)
		})
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.NewAuthHandler(cfg.Verifier))

		api.Group(func(j chi.Router) {
			j.Use(middleware.NewMaxBodySizeHandler(maxBody))

			j.Get("/trips", s.ListTrips)
			j.Post("/trips", s.CreateTrip)
			j.Get("/trips/{id}", s.GetTrip)
			j.Patch("/trips/{id}", s.UpdateTrip)
			j.Delete("/trips/{id}", s.DeleteTrip)
			j.Get("/trips/{id}/photos/by-day", s.ListTripPhotosByDay)
			j.Get("/trips/{id}/export", s.ExportTrip)

			j.Get("/photos/map", s.ListMappedPhotos)
			j.Get("/photos/{id}", s.GetPhoto)
			j.Patch("/photos/{id}", s.UpdatePhotoCaption)

			j.Get("/dashboard/stats", s.GetDashboardStats)
			j.Get("/dashboard/on-this-day", s.GetOnThisDay)
			j.Get("/dashboard/upcoming", s.GetUpcomingTrips)
			j.Get("/dashboard/recent-activity", s.GetRecentActivity)
		})

		api.Group(func(u chi.Router) {
			if cfg.UploadLimiter != nil {
				u.Use(cfg.UploadLimiter.Middleware())
			}
			u.Use(middleware.NewMaxBodySizeHandler(maxUpload))
			u.Post("/trips/{id}/photos", s.UploadPhoto)
		})
	})

	return r
}
