package resilience

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt,
	// so total attempts = MaxRetries + 1. Negative is treated as 0.
	MaxRetries int

	// InitialDelay is the wait before the first retry.
	// Default: 600ms
	InitialDelay time.Duration

	// Multiplier scales the delay after each retry.
	// Default: 2.0 (doubling)
	Multiplier float64

	// MaxDelay caps the delay between retries. Zero means no cap.
	MaxDelay time.Duration

	// Jitter adds up to 25% randomness to each delay. Off by default
	// so the observed sequence is exactly d, 2d, 4d...
	Jitter bool

	// RetryIf decides whether a failed attempt should be retried.
	// Default: retry every non-nil error.
	RetryIf func(err error) bool

	// OnRetry is called before each retry wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry executes operations with a bounded, decrementing retry
// budget. Termination is guaranteed: the loop runs at most
// MaxRetries+1 times regardless of outcomes.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry handler, applying defaults.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 600 * time.Millisecond
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	return &Retry{config: config}
}

// Execute runs op, retrying per the config. The delay doubles (or
// scales by Multiplier) after each attempt. Waits respect ctx; a
// cancelled context ends the loop with ctx.Err(). A spent budget
// returns the last attempt's error wrapped in ErrRetriesExhausted.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	delay := r.config.InitialDelay
	var lastErr error

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt > r.config.MaxRetries {
			break
		}

		wait := delay
		if r.config.MaxDelay > 0 && wait > r.config.MaxDelay {
			wait = r.config.MaxDelay
		}
		if r.config.Jitter && wait > 0 {
			// #nosec G404 -- jitter is non-cryptographic timing variance.
			wait += time.Duration(rand.Int64N(int64(wait / 4)))
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, wait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * r.config.Multiplier)
	}

	return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
