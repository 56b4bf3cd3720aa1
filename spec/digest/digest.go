// Package digest computes content digests used for change detection.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortLen is how many hex characters ShortDigest keeps for display.
const ShortLen = 12

// Sum returns the sha256 digest of content as a lowercase hex string.
// Deterministic: identical bytes always produce identical digests.
func Sum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Short truncates a digest for display. Never use the short form for
// equality checks.
func Short(d string) string {
	if len(d) <= ShortLen {
		return d
	}
	return d[:ShortLen]
}

// Equal compares a prior digest against a new one. An absent prior digest is
// never equal, so ingestion proceeds whenever there is no trustworthy prior
// record.
func Equal(prior, next string) bool {
	if prior == "" || next == "" {
		return false
	}
	return prior == next
}
