package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/fep/internal/ratelimit"
)

func newTestLimiter(t *testing.T) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return ratelimit.NewLimiter(rdb, "test-salt"), mr
}

func TestCheckRateLimitAllowsUpToRate(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	cfg := ratelimit.LimitConfig{Rate: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		d, err := limiter.CheckRateLimit(context.Background(), "rl:test", cfg)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
	}

	d, err := limiter.CheckRateLimit(context.Background(), "rl:test", cfg)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestCheckRateLimitResetsAfterWindow(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	cfg := ratelimit.LimitConfig{Rate: 1, Window: time.Second}

	d, err := limiter.CheckRateLimit(context.Background(), "rl:window", cfg)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.CheckRateLimit(context.Background(), "rl:window", cfg)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	mr.FastForward(2 * time.Second)

	d, err = limiter.CheckRateLimit(context.Background(), "rl:window", cfg)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "count should have expired after the window elapsed")
}

func TestCheckRateLimitErrorsWhenRedisUnavailable(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	mr.Close()

	_, err := limiter.CheckRateLimit(context.Background(), "rl:down", ratelimit.LimitConfig{Rate: 1, Window: time.Second})
	assert.ErrorIs(t, err, ratelimit.ErrRedisUnavailable)
}

func TestHashIPIsStableAndSaltDependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	a := limiter.HashIP("203.0.113.5")
	b := limiter.HashIP("203.0.113.5")
	assert.Equal(t, a, b)

	otherRdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	other := ratelimit.NewLimiter(otherRdb, "different-salt")
	assert.NotEqual(t, a, other.HashIP("203.0.113.5"))
}
