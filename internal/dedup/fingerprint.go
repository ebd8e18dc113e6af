// Package dedup computes content fingerprints for submitted documents and
// classifies them as new or duplicate against already-accepted fingerprints.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Fingerprint returns the SHA-256 hex digest of the exact document bytes.
// Fingerprints are compared as opaque strings; a collision is treated as
// "same document" and never investigated further.
func Fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FingerprintReader fingerprints a stream without buffering it, for uploads
// too large to hold in memory.
func FingerprintReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
