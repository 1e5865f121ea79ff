// Package checksum computes the version tags used for optimistic
// concurrency on drawings.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Drawing returns the tag of stored drawing JSON. A NULL drawing hashes as
// the JSON literal null so that "no drawing" has a stable tag too.
func Drawing(raw []byte) string {
	if raw == nil {
		raw = []byte("null")
	}
	return Sum(raw)
}
