// Package gateway is the resilient client for the AI-backed API. It
// presents one call primitive through many named endpoint methods:
// each derives a deterministic cache key from its semantic inputs,
// consults the local cache, and on a miss delegates to the resilient
// transport. Outcomes are classified into Result values; raw
// transport errors never reach callers. Success, error, and
// rate-limit events are reported to an injected Notifier owned by the
// UI layer.
package gateway
