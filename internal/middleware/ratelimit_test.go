package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/fep/internal/middleware"
	"github.com/technosupport/fep/internal/ratelimit"
)

func TestRateLimitAllowsThenBlocks(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := ratelimit.NewLimiter(rdb, "salt")
	cfg := ratelimit.LimitConfig{Rate: 2, Window: time.Second}

	h := middleware.RateLimit(limiter, cfg)(okHandler())

	req := httptest.NewRequest("GET", "/debug/events", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpenWhenRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	limiter := ratelimit.NewLimiter(rdb, "salt")
	cfg := ratelimit.LimitConfig{Rate: 1, Window: time.Second}

	h := middleware.RateLimit(limiter, cfg)(okHandler())

	req := httptest.NewRequest("GET", "/debug/events", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitScopesByForwardedForHeader(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := ratelimit.NewLimiter(rdb, "salt")
	cfg := ratelimit.LimitConfig{Rate: 1, Window: time.Second}

	h := middleware.RateLimit(limiter, cfg)(okHandler())

	reqA := httptest.NewRequest("GET", "/debug/events", nil)
	reqA.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, reqA)
	require.Equal(t, http.StatusOK, rec.Code)

	reqB := httptest.NewRequest("GET", "/debug/events", nil)
	reqB.Header.Set("X-Forwarded-For", "8.8.8.8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, reqB)
	require.Equal(t, http.StatusOK, rec.Code, "different client IP should have its own bucket")
}
