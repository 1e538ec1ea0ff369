// Package idgen generates the identifiers the store and fixtures packages
// need: opaque record ids and content hashes for dedup/cache keys.
package idgen

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewUUID returns a fresh random identifier suitable for a record id.
func NewUUID() string {
	return uuid.New().String()
}

// ContentHash returns the hex-encoded SHA-256 digest of b, stable across
// runs for identical input — useful as a cache key or a dedup fingerprint
// for fixture data.
func ContentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
