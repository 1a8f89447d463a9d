// Package ratelimit throttles anonymous traffic on the public lookup and
// report endpoints, keyed by client IP. A sliding window store backs the
// decision; Redis makes the window shared across instances.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"veritel/pkg/platform/httputil"
	"veritel/pkg/requestcontext"
)

var throttledRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "veritel_ratelimit_throttled_total",
	Help: "Requests rejected by the rate limiter",
}, []string{"path"})

// Result describes one limiter decision.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Store tracks request counts per key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Middleware rejects clients that exceed limit requests per window.
// Limiter failures fail open: lookup availability outranks strictness.
func Middleware(store Store, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := store.Allow(ctx, "rl:ip:"+ip, limit, window)
			if err != nil {
				logger.WarnContext(ctx, "rate limiter unavailable, failing open", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				throttledRequests.WithLabelValues(r.URL.Path).Inc()
				retryAfter := max(int(time.Until(result.ResetAt).Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limited",
					"error_description": "too many requests, slow down",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
