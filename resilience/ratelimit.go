package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// LimiterConfig configures the client-side rate limiter.
type LimiterConfig struct {
	// RPS is the sustained number of calls allowed per second.
	// Default: 10
	RPS float64

	// Burst is the maximum burst size.
	// Default: 5
	Burst int

	// WaitOnLimit blocks for a token instead of failing fast.
	WaitOnLimit bool
}

// Limiter is a token-bucket rate limiter for outbound calls. It is
// an opt-in throttle: callers that want to back off after upstream
// rate limiting can install one, but nothing in the core requires it.
type Limiter struct {
	config  LimiterConfig
	limiter *rate.Limiter
}

// NewLimiter creates a rate limiter, applying defaults.
func NewLimiter(config LimiterConfig) *Limiter {
	if config.RPS <= 0 {
		config.RPS = 10
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	return &Limiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RPS), config.Burst),
	}
}

// Execute runs op if the limiter admits it. In WaitOnLimit mode it
// blocks until a token is available or ctx is done; otherwise it
// fails fast with ErrRateLimitExceeded.
func (l *Limiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if l.config.WaitOnLimit {
		if err := l.limiter.Wait(ctx); err != nil {
			return err
		}
	} else if !l.limiter.Allow() {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

// Allow reports whether a call would be admitted right now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Config returns the limiter configuration.
func (l *Limiter) Config() LimiterConfig {
	return l.config
}
