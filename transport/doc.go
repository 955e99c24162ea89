// Package transport performs the gateway's outbound HTTP calls. Each
// call is bounded by a hard per-attempt timeout, decoded into the
// backend's JSON envelope, and retried with doubling backoff while the
// response is retryable (429 or 5xx) and budget remains. Responses
// that are not retryable are handed back as-is; classification into
// caller-facing failure kinds happens one level up in package gateway.
package transport
