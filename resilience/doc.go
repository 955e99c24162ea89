// Package resilience provides the failure-handling primitives the
// transport composes: bounded retry with exponential backoff, hard
// timeouts, and an optional client-side rate limiter.
package resilience
