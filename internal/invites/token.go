package invites

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenLength is the length of an invite token string. 48 random bytes encode
// to exactly 64 URL-safe characters.
const TokenLength = 64

const tokenBytes = 48

// GenerateToken returns a new opaque invite token.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidTokenFormat reports whether s has the shape of an invite token. Used to
// reject garbage before touching storage.
func ValidTokenFormat(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(decoded) == tokenBytes
}
