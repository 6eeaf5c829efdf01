// Package auth resolves the calling user from a bearer token. Tokens are
// HMAC-signed "userID:expiresUnix:signature" strings, so the service can
// verify them without a session store.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signer generates and validates HMAC based user tokens.
type Signer struct {
	secret []byte
}

func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Sign returns the hex signature for a user id and expiry pair.
func (s *Signer) Sign(userID string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	payload := fmt.Sprintf("%s:%d", userID, expiresUnix)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Token builds a complete bearer token for userID valid until expiresUnix.
func (s *Signer) Token(userID string, expiresUnix int64) string {
	return fmt.Sprintf("%s:%d:%s", userID, expiresUnix, s.Sign(userID, expiresUnix))
}

// Validate checks a signature against the expected value for its inputs.
func (s *Signer) Validate(userID, expires, signature string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	expected := s.Sign(userID, exp)
	// Constant-time comparison to avoid timing attacks.
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Parse verifies a full token and returns the user id it names. Expired or
// malformed tokens return ok=false.
func (s *Signer) Parse(token string, now time.Time) (userID string, ok bool) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return "", false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || now.Unix() > exp {
		return "", false
	}
	if !s.Validate(parts[0], parts[1], parts[2]) {
		return "", false
	}
	return parts[0], true
}
