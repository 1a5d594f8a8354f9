// Package middleware provides HTTP middleware for the Footsteps API server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewSlogLogger returns a middleware that logs each request as a structured
// JSON line via the provided slog.Logger: method, path, status, duration,
// bytes written, the request ID set by chi's RequestID middleware and, once
// the auth middleware has run, the requester's user ID.
//
// Wire it after chimiddleware.RequestID so the request ID is available.
// The user ID is read after the handler returns, so it is picked up even
// though authentication happens further down the chain.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// WrapResponseWriter intercepts WriteHeader so we can read the
			// status code after the downstream handler has run.
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			holder := &requester{}
			next.ServeHTTP(ww, r.WithContext(withRequesterHolder(r.Context(), holder)))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			}
			if holder.userID != "" {
				attrs = append(attrs, "user_id", holder.userID)
			}

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(r.Context(), level, "request", attrs...)
		})
	}
}
