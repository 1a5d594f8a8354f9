package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// userLimiter holds one user's token bucket and when it was last used.
type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a per-user token bucket. It must sit behind
// NewAuthHandler so the user ID is in the request context.
type RateLimiter struct {
	perMinute int
	limit     rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[string]*userLimiter
	now      func() time.Time
}

// NewRateLimiter allows perMinute requests per user per minute, with a
// burst of the same size. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	limit := rate.Inf
	burst := 0
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60.0)
		burst = perMinute
	}
	return &RateLimiter{
		perMinute: perMinute,
		limit:     limit,
		burst:     burst,
		limiters:  make(map[string]*userLimiter),
		now:       time.Now,
	}
}

// Middleware rejects requests over the user's budget with 429 and a
// Retry-After header.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
				return
			}

			if !rl.allow(userID) {
				slog.WarnContext(r.Context(), "rate limit exceeded", "user_id", userID, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Run evicts limiters idle for longer than idle every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.sweep(idle)
		}
	}
}

// Len returns the number of users currently tracked.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) allow(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	ul, ok := rl.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[userID] = ul
	}
	ul.lastAccess = now
	return ul.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweep(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	for id, ul := range rl.limiters {
		if ul.lastAccess.Before(cutoff) {
			delete(rl.limiters, id)
		}
	}
}

// retryAfterSeconds is the time to earn one token, rounded up.
func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.perMinute <= 0 {
		return 1
	}
	return (60 + rl.perMinute - 1) / rl.perMinute
}
