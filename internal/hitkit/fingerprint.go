package hitkit

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultFingerprintWidth is the number of digest characters kept for a
// visitor fingerprint when no width is configured.
const DefaultFingerprintWidth = 10

// HashFingerprint derives a fixed-width visitor fingerprint from a canonical
// descriptor string. The function is pure: the same input and width always
// yield the same output, and the output length is exactly width characters.
// A truncated digest is not globally unique; a birthday collision conflates
// two visitors under one stored descriptor and is accepted behavior.
func HashFingerprint(canonicalDescriptor string, width int) string {
	if width <= 0 {
		return ""
	}
	digest := sha256.Sum256([]byte(canonicalDescriptor))
	encoded := hex.EncodeToString(digest[:])
	if width >= len(encoded) {
		return encoded
	}
	return encoded[:width]
}
