// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a hex-encoded, cryptographically random token.
//
// # Parameters
//   - byteLength: entropy in bytes; the returned string is twice as long.
//     Session identifiers use 32 bytes (256 bits), comfortably above the
//     128-bit minimum required to make guessing infeasible.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token.
//
// Opaque credentials (backup codes) are stored only as digests so a database
// leak does not expose usable secrets. SHA-256 rather than bcrypt because the
// input is already high-entropy random material, and the digest must be
// usable as an exact-match lookup key.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

// ConstantTimeEquals compares two strings without leaking the position of
// the first differing byte.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
