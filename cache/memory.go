package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process cache backend. Entries expire lazily:
// a Get past the stored deadline misses and the entry is dropped.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates an in-memory cache. cleanupInterval bounds
// how long expired entries linger before the janitor sweeps them;
// <=0 disables the janitor and relies on read-time purging alone.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get retrieves a value. Returns (nil, false) on miss or expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set stores a value with the given TTL. TTL<=0 means don't cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	c.store.Set(key, cp, ttl)
	return nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

var _ Cache = (*MemoryCache)(nil)
