package cache

import (
	"encoding/hex"
	"hash/fnv"
	"sort"
	"strings"
)

// Hash returns a short, key-safe token for s: FNV-1a 64-bit as
// lowercase hex. It is deterministic across processes (no seed) and
// linear in the input length. It is a cache-sharding aid, not a
// security primitive.
func Hash(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	var buf [8]byte
	return hex.EncodeToString(h.Sum(buf[:0]))
}

// Keyer derives cache keys of the form {prefix}:{endpoint}:{hash}
// with an optional secondary token.
//
// Contract:
// - Determinism: semantically equal inputs must produce the same key.
//   Unordered inputs are sorted before hashing, so callers supplying
//   the same set in a different order still share an entry.
// - Concurrency: Keyer is stateless and safe for concurrent use.
type Keyer struct {
	// Prefix namespaces every derived key so unrelated data sharing
	// the backing medium cannot collide with ours.
	Prefix string
}

// NewKeyer creates a keyer with the given namespace prefix.
// An empty prefix defaults to "aigate".
func NewKeyer(prefix string) *Keyer {
	if prefix == "" {
		prefix = "aigate"
	}
	return &Keyer{Prefix: prefix}
}

// Key derives a cache key for endpoint from ordered text parts.
// Parts are joined with an unlikely separator before hashing so that
// ("ab","c") and ("a","bc") do not collide.
func (k *Keyer) Key(endpoint string, parts ...string) string {
	return k.Prefix + ":" + endpoint + ":" + Hash(strings.Join(parts, "\x1f"))
}

// KeySet derives a cache key for endpoint from an unordered string
// set plus ordered text parts. The set is copied and sorted first, so
// two calls with the same members in any order produce the same key.
func (k *Keyer) KeySet(endpoint string, set []string, parts ...string) string {
	sorted := make([]string, len(set))
	copy(sorted, set)
	sort.Strings(sorted)
	joined := append([]string{strings.Join(sorted, "\x1f")}, parts...)
	return k.Key(endpoint, joined...)
}

// KeyWithSecondary appends a secondary token to an already derived
// key, for endpoints whose inputs split into two semantic axes
// (e.g. document hash plus option-set hash).
func (k *Keyer) KeyWithSecondary(endpoint, primary, secondary string) string {
	return k.Prefix + ":" + endpoint + ":" + Hash(primary) + ":" + Hash(secondary)
}
