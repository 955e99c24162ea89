package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// NopCache is the degraded store: every Get misses, every Set is
// dropped. It is what the gateway runs on when the backing medium is
// unusable.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool)             { return nil, false }
func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NopCache) Delete(context.Context, string) error                   { return nil }

var _ Cache = NopCache{}

// Degrading wraps a backend and silently falls back to NopCache
// semantics after the first backend access failure. Set errors never
// reach the caller; OnError (if set) is invoked once with the error
// that tripped the fallback.
type Degrading struct {
	inner   Cache
	OnError func(error)

	degraded atomic.Bool
	once     sync.Once
}

// NewDegrading wraps inner. onError may be nil.
func NewDegrading(inner Cache, onError func(error)) *Degrading {
	return &Degrading{inner: inner, OnError: onError}
}

// Get retrieves a value from the wrapped backend unless degraded.
func (d *Degrading) Get(ctx context.Context, key string) ([]byte, bool) {
	if d.degraded.Load() {
		return nil, false
	}
	return d.inner.Get(ctx, key)
}

// Set stores a value. A backend failure trips the degraded state and
// is swallowed: the cache is best-effort, not authoritative.
func (d *Degrading) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if d.degraded.Load() {
		return nil
	}
	if err := d.inner.Set(ctx, key, value, ttl); err != nil {
		d.trip(err)
	}
	return nil
}

// Delete removes a value unless degraded.
func (d *Degrading) Delete(ctx context.Context, key string) error {
	if d.degraded.Load() {
		return nil
	}
	if err := d.inner.Delete(ctx, key); err != nil {
		d.trip(err)
	}
	return nil
}

// Degraded reports whether the wrapper has fallen back to no-op mode.
func (d *Degrading) Degraded() bool {
	return d.degraded.Load()
}

func (d *Degrading) trip(err error) {
	d.degraded.Store(true)
	d.once.Do(func() {
		if d.OnError != nil {
			d.OnError(err)
		}
	})
}

var _ Cache = (*Degrading)(nil)
