// Adapted from the teacher's multi-tenant internal/middleware/ratelimit.go.
// FEP's admin API (spec.md §6) has one operator and no per-user scoping, so
// the tenant/user/login-specific limiter selection collapses to a single
// per-IP fixed window over internal/ratelimit.Limiter.
package middleware

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/technosupport/fep/internal/ratelimit"
)

// RateLimit applies a per-IP fixed-window limit to the wrapped handler.
// A Redis failure fails open (logged, request allowed through) since the
// admin API is not a security boundary around tenant data, only an
// abuse guard.
func RateLimit(limiter *ratelimit.Limiter, cfg ratelimit.LimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			key := "rl:admin:" + limiter.HashIP(ip)

			decision, err := limiter.CheckRateLimit(r.Context(), key, cfg)
			if err != nil {
				log.Printf("[middleware] rate limit check failed, failing open: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			writeRateLimitHeaders(w, decision)
			if !decision.Allowed {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func writeRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	if !d.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
	}
}
