package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/courseloop/academy-server-go/internal/audit"
	"github.com/courseloop/academy-server-go/internal/service"
)

// IPRateLimitMiddleware throttles an endpoint per client address using
// the shared sliding-window limiter. The key function scopes the
// counter, e.g. redis.WebhookLimitKey.
type IPRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
	window  time.Duration
	keyFn   func(ip string) string
}

func NewIPRateLimitMiddleware(limiter *service.RateLimiter, limit int, window time.Duration, keyFn func(ip string) string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		keyFn:   keyFn,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := audit.GetClientIP(r)

		allowed, resetAt := m.limiter.CheckLimit(r.Context(), m.keyFn(ip), m.limit, m.window)

		if !allowed {
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secondsLeft))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
