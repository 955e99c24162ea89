package health

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/mentorbridge/aigate/cache"
)

// ErrCacheProbe indicates the cache round-trip probe failed.
var ErrCacheProbe = errors.New("health: cache probe failed")

const (
	cacheProbeKey = "aigate:health:probe"
	cacheProbeTTL = 5 * time.Second
)

// CacheChecker verifies the response cache with a small write/read
// round trip. Cache loss only degrades the gateway, it never takes it
// down, so probe failures map to degraded.
type CacheChecker struct {
	store cache.Cache
}

// NewCacheChecker creates a checker for the given cache.
func NewCacheChecker(store cache.Cache) *CacheChecker {
	return &CacheChecker{store: store}
}

// Name returns the checker name.
func (c *CacheChecker) Name() string { return "cache" }

// Check writes a probe value and reads it back.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if d, ok := c.store.(*cache.Degrading); ok && d.Degraded() {
		return Degraded("cache degraded: serving uncached responses")
	}

	probe := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	if err := c.store.Set(ctx, cacheProbeKey, probe, cacheProbeTTL); err != nil {
		return Degraded("cache write failing: " + err.Error())
	}

	got, ok := c.store.Get(ctx, cacheProbeKey)
	if !ok || !bytes.Equal(got, probe) {
		return Degraded("cache read-back failed")
	}

	return Healthy("cache round trip ok")
}

var _ Checker = (*CacheChecker)(nil)
