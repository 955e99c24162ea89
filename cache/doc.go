// Package cache provides the bounded local response cache used by the
// gateway client.
//
// It defines the Cache interface with memory, sqlite, and redis
// backends, FNV-1a key derivation, and the per-endpoint TTL policy
// table. Caching is best-effort: writes never fail the caller and
// expired entries are purged lazily by the read that observes them.
package cache
