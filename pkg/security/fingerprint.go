package security

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a hex BLAKE2b-256 digest of value. It keeps raw
// identifiers and request bodies out of cache keys and stored records.
func Fingerprint(value []byte) string {
	sum := blake2b.Sum256(value)
	return hex.EncodeToString(sum[:])
}

// FingerprintString is Fingerprint for strings.
func FingerprintString(value string) string {
	return Fingerprint([]byte(value))
}
