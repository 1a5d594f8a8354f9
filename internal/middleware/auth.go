package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	requesterHolderKey
)

// TokenVerifier resolves a bearer token to a user ID. *auth.Verifier satisfies it.
type TokenVerifier interface {
	UserID(token string) (string, error)
}

// ContextWithUserID returns a copy of ctx carrying the authenticated user ID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if h, ok := ctx.Value(requesterHolderKey).(*requester); ok {
		h.userID = userID
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID, or "" when the request
// never passed through NewAuthHandler.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// NewAuthHandler returns a middleware that requires an
// "Authorization: Bearer <token>" header. A missing or invalid token is
// rejected with 401 before any handler runs.
func NewAuthHandler(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
				return
			}

			userID, err := v.UserID(token)
			if err != nil {
				slog.DebugContext(r.Context(), "rejected bearer token", "error", err)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requester lets the request logger, which wraps the auth middleware, see
// the user ID the auth middleware resolved.
type requester struct {
	userID string
}

func withRequesterHolder(ctx context.Context, h *requester) context.Context {
	return context.WithValue(ctx, requesterHolderKey, h)
}
