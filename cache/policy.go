package cache

import "time"

// TTLPolicy maps endpoint names to fixed TTLs. A zero (or absent)
// TTL marks the endpoint as never cached. The table is immutable
// configuration set at construction.
type TTLPolicy struct {
	ttls map[string]time.Duration
}

// DefaultTTLs is the stock per-endpoint TTL table, in seconds of
// freshness each answer is allowed. Moderation is deliberately
// absent: its verdicts must reflect live content, never a memoized
// judgment.
var DefaultTTLs = map[string]time.Duration{
	"health":          60 * time.Second,
	"summary":         600 * time.Second,
	"topics":          900 * time.Second,
	"match":           1800 * time.Second,
	"rewrite":         900 * time.Second,
	"insight":         600 * time.Second,
	"learning-path":   1800 * time.Second,
	"thread-summary":  600 * time.Second,
	"resume-optimize": 1200 * time.Second,
	"essay-analyze":   1200 * time.Second,
	"donor-story":     3600 * time.Second,
}

// NewTTLPolicy builds a policy from the given table. The map is
// copied; later mutation of the argument does not affect the policy.
// A nil map yields DefaultTTLs.
func NewTTLPolicy(ttls map[string]time.Duration) TTLPolicy {
	if ttls == nil {
		ttls = DefaultTTLs
	}
	cp := make(map[string]time.Duration, len(ttls))
	for k, v := range ttls {
		cp[k] = v
	}
	return TTLPolicy{ttls: cp}
}

// DefaultTTLPolicy returns the policy built from DefaultTTLs.
func DefaultTTLPolicy() TTLPolicy {
	return NewTTLPolicy(nil)
}

// MergedTTLPolicy layers overrides on top of DefaultTTLs. An override
// of zero disables caching for that endpoint.
func MergedTTLPolicy(overrides map[string]time.Duration) TTLPolicy {
	merged := make(map[string]time.Duration, len(DefaultTTLs)+len(overrides))
	for k, v := range DefaultTTLs {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return TTLPolicy{ttls: merged}
}

// IsZero reports whether the policy was never constructed; a zero
// policy caches nothing.
func (p TTLPolicy) IsZero() bool {
	return p.ttls == nil
}

// TTLFor returns the TTL for an endpoint, zero if uncached.
func (p TTLPolicy) TTLFor(endpoint string) time.Duration {
	return p.ttls[endpoint]
}

// Cacheable reports whether responses from endpoint may be cached.
func (p TTLPolicy) Cacheable(endpoint string) bool {
	return p.ttls[endpoint] > 0
}
