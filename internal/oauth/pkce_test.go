package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func s256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestVerifyPKCE_S256(t *testing.T) {
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	challenge := s256Challenge(verifier)

	assert.True(t, VerifyPKCE(verifier, challenge, PKCEMethodS256))
	assert.False(t, VerifyPKCE("wrong-verifier", challenge, PKCEMethodS256))
	assert.False(t, VerifyPKCE("", challenge, PKCEMethodS256))
}

func TestVerifyPKCE_Plain(t *testing.T) {
	assert.True(t, VerifyPKCE("abc123", "abc123", PKCEMethodPlain))
	assert.False(t, VerifyPKCE("abc123", "other", PKCEMethodPlain))
}

func TestVerifyPKCE_UnknownMethod(t *testing.T) {
	assert.False(t, VerifyPKCE("abc", "abc", "md5"))
}

func TestValidPKCEMethod(t *testing.T) {
	assert.True(t, ValidPKCEMethod(PKCEMethodS256))
	assert.True(t, ValidPKCEMethod(PKCEMethodPlain))
	assert.False(t, ValidPKCEMethod("md5"))
	assert.False(t, ValidPKCEMethod(""))
}
