package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the SHA-256 digest of data as a 64-character hex string.
// Callers use it to fingerprint serialized topologies and position maps.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced cache key of the form "prefix:digest", where
// the digest is the SHA-256 hash of the JSON encoding of parts. Every field
// that influences the cached artifact must be included in parts, otherwise
// stale entries can be served across option changes.
func hashKey(prefix string, parts ...any) string {
	encoded, _ := json.Marshal(parts)
	return prefix + ":" + Hash(encoded)
}
