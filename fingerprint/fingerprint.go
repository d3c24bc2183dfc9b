// Package fingerprint derives the deterministic content digest that anchors a
// certificate on the ledger. The digest depends only on the raw byte content,
// never on filenames or upload metadata, so that verification can re-derive it
// from independently uploaded bytes.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// HexLen is the length of a fingerprint in its hex representation.
const HexLen = sha256.Size * 2

// Fingerprint returns the lowercase hex sha256 digest of content.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Bytes32 returns the 0x-prefixed form of a hex fingerprint as used on the
// ledger wire.
func Bytes32(hexFingerprint string) string {
	return "0x" + hexFingerprint
}

// IsValid reports whether s is a well-formed hex fingerprint.
func IsValid(s string) bool {
	if len(s) != HexLen {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
