package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProbeCache is a best-effort cache of recent probe outcomes, keyed by
// (event id, kind), so a flurry of update frames for the same event within
// a second doesn't re-probe Frigate each time. This is NOT the Cooldown
// Ledger (internal/cooldown) and has no bearing on admission correctness:
// on a cache miss or Redis outage, Probe falls through to the real Prober.
//
// Grounded on internal/ratelimit/limiter.go's use of go-redis for a
// short-TTL key, adapted here from a counter to a plain value cache.
type ProbeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProbeCache wraps client with a TTL for cached probe results. A nil
// client is valid and makes every Get a miss (caching disabled).
func NewProbeCache(client *redis.Client, ttl time.Duration) *ProbeCache {
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	return &ProbeCache{client: client, ttl: ttl}
}

func cacheKey(eventID string, kind Kind) string {
	return fmt.Sprintf("fep:artifact:%s:%s", eventID, kind)
}

// Get returns the cached availability for (eventID, kind), or ok=false on a
// miss or when caching is disabled/unavailable.
func (c *ProbeCache) Get(ctx context.Context, eventID string, kind Kind) (available bool, ok bool) {
	if c.client == nil {
		return false, false
	}
	val, err := c.client.Get(ctx, cacheKey(eventID, kind)).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

// Set stores the outcome with the configured TTL. Errors are swallowed:
// this cache is an optimization, never a correctness dependency.
func (c *ProbeCache) Set(ctx context.Context, eventID string, kind Kind, available bool) {
	if c.client == nil {
		return
	}
	val := "0"
	if available {
		val = "1"
	}
	c.client.Set(ctx, cacheKey(eventID, kind), val, c.ttl)
}

// CachingProber wraps a Prober with a ProbeCache.
type CachingProber struct {
	inner Prober
	cache *ProbeCache
}

// NewCachingProber returns a Prober that checks cache before calling inner,
// and only caches definitive (available/not-yet) results, never transient
// errors.
func NewCachingProber(inner Prober, cache *ProbeCache) *CachingProber {
	return &CachingProber{inner: inner, cache: cache}
}

func (p *CachingProber) Probe(ctx context.Context, eventID string, kind Kind) (bool, string, error) {
	if available, ok := p.cache.Get(ctx, eventID, kind); ok && available {
		// Only short-circuit positive hits; "not yet" must keep being
		// re-probed so a just-finished snapshot is picked up promptly.
		return true, "", nil
	}
	available, url, err := p.inner.Probe(ctx, eventID, kind)
	if err == nil {
		p.cache.Set(ctx, eventID, kind, available)
	}
	return available, url, err
}
