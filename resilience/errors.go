package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrRetriesExhausted is returned when the retry budget is spent.
	ErrRetriesExhausted = errors.New("resilience: retry budget exhausted")

	// ErrRateLimitExceeded is returned when the local rate limiter
	// rejects a call.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")
)
