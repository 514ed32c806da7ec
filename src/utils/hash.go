package utils

import (
	"crypto/sha256"
	"fmt"
)

// Sha256Hex concatenates the given parts and returns the hex-encoded
// SHA-256 digest of the result.
func Sha256Hex(parts ...string) string {
	hash := sha256.New()
	for _, part := range parts {
		hash.Write([]byte(part))
	}

	return fmt.Sprintf("%x", hash.Sum(nil))
}

// MaskSecret returns a loggable form of a secret: the first few characters
// followed by a fixed suffix. Short secrets are masked entirely.
func MaskSecret(secret string) string {
	const visible = 10

	if len(secret) <= visible {
		return "******"
	}

	return secret[:visible] + "******"
}
