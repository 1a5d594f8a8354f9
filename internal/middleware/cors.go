// Package middleware provides reusable HTTP middleware for the Footsteps API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// preflightMaxAge lets browsers cache a preflight for ten minutes.
const preflightMaxAge = 600

// NewCORSHandler admits the web app's origins (scheme + host, no trailing
// slash). The bearer token travels in Authorization rather than a cookie, so
// credentials stay disabled. Retry-After is exposed for throttled uploads.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After", "Content-Disposition"},
		MaxAge:         preflightMaxAge,
	})
	return c.Handler
}
