package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/footsteps/internal/middleware"
)

const webOrigin = "http://localhost:5173"

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		origin     string
		reqMethod  string // Access-Control-Request-Method, preflights only
		reqHeaders string // must be lowercase, as browsers send it
		wantOrigin string
		wantMethod string
	}{
		{
			name:       "simple GET from the web app",
			method:     http.MethodGet,
			path:       "/api/trips",
			origin:     webOrigin,
			wantOrigin: webOrigin,
		},
		{
			name:   "GET from an unknown origin",
			method: http.MethodGet,
			path:   "/api/trips",
			origin: "http://evil.example.com",
		},
		{
			name:       "preflight for photo upload",
			method:     http.MethodOptions,
			path:       "/api/trips/123/photos",
			origin:     webOrigin,
			reqMethod:  http.MethodPost,
			reqHeaders: "authorization",
			wantOrigin: webOrigin,
			wantMethod: http.MethodPost,
		},
		{
			name:       "preflight for caption edit",
			method:     http.MethodOptions,
			path:       "/api/photos/123",
			origin:     webOrigin,
			reqMethod:  http.MethodPatch,
			reqHeaders: "authorization,content-type",
			wantOrigin: webOrigin,
			wantMethod: http.MethodPatch,
		},
		{
			name:       "preflight for trip delete",
			method:     http.MethodOptions,
			path:       "/api/trips/123",
			origin:     webOrigin,
			reqMethod:  http.MethodDelete,
			reqHeaders: "authorization",
			wantOrigin: webOrigin,
			wantMethod: http.MethodDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.NewCORSHandler([]string{webOrigin})(okHandler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Origin", tt.origin)
			if tt.reqMethod != "" {
				req.Header.Set("Access-Control-Request-Method", tt.reqMethod)
				req.Header.Set("Access-Control-Request-Headers", tt.reqHeaders)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Less(t, rec.Code, 300, "status")
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantMethod != "" {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), tt.wantMethod)
			}
		})
	}
}

// The web app reads Retry-After from 429 upload responses.
func TestCORSHandler_ExposesRetryAfter(t *testing.T) {
	h := middleware.NewCORSHandler([]string{webOrigin})(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/trips/123/photos", nil)
	req.Header.Set("Origin", webOrigin)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
}
