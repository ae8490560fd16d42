package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// randomToken returns n random bytes encoded as URL-safe base64 without
// padding.
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewClientID returns a public client identifier (32 random bytes).
func NewClientID() (string, error) { return randomToken(32) }

// NewClientSecret generates a client secret and its bcrypt hash. The
// plaintext is shown once and never stored.
func NewClientSecret() (plaintext, hash string, err error) {
	plaintext, err = randomToken(48)
	if err != nil {
		return "", "", err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash client secret: %w", err)
	}
	return plaintext, string(h), nil
}

// CheckClientSecret returns nil if plaintext matches hash.
func CheckClientSecret(hash, plaintext string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
}

// newAccessToken and newRefreshToken are 48 random bytes each; opaque
// values, no embedded claims.
func newAccessToken() (string, error)  { return randomToken(48) }
func newRefreshToken() (string, error) { return randomToken(48) }

// newAuthCode returns a single-use authorization code.
func newAuthCode() (string, error) { return randomToken(32) }
