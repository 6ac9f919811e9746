// Package checksum fingerprints persisted navigation documents so that a
// truncated or hand-edited snapshot is refused on restore.
package checksum

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of doc.
func Sum(doc []byte) string {
	h := sha256.Sum256(doc)
	return hex.EncodeToString(h[:])
}

// Verify reports whether sum is the digest of doc. An empty sum never
// matches.
func Verify(doc []byte, sum string) bool {
	if sum == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Sum(doc)), []byte(sum)) == 1
}
