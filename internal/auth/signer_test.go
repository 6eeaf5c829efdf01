package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))
	now := time.Now()
	token := signer.Token("user-123", now.Add(time.Hour).Unix())

	userID, ok := signer.Parse(token, now)
	if !ok {
		t.Fatal("expected token to validate")
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))
	now := time.Now()
	token := signer.Token("user-123", now.Add(-time.Minute).Unix())

	if _, ok := signer.Parse(token, now); ok {
		t.Error("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))
	other := NewSigner([]byte("other-secret"))
	now := time.Now()
	token := signer.Token("user-123", now.Add(time.Hour).Unix())

	if _, ok := other.Parse(token, now); ok {
		t.Error("expected token signed with a different secret to be rejected")
	}
}

func TestParseRejectsTamperedUser(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))
	now := time.Now()
	exp := now.Add(time.Hour).Unix()

	tampered := "user-456:" + signer.Token("user-123", exp)[len("user-123:"):]
	if _, ok := signer.Parse(tampered, now); ok {
		t.Error("expected token with swapped user id to be rejected")
	}
}

func TestParseRejectsMalformedTokens(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))
	now := time.Now()

	for _, token := range []string{
		"",
		"user-123",
		"user-123:notanumber:abc",
		"user-123:1700000000",
		"user-123:1700000000:deadbeef:extra",
	} {
		if _, ok := signer.Parse(token, now); ok {
			t.Errorf("expected %q to be rejected", token)
		}
	}
}

func TestSignIsDeterministic(t *testing.T) {
	signer := NewSigner([]byte("test-secret"))
	a := signer.Sign("user-123", 1700000000)
	b := signer.Sign("user-123", 1700000000)
	if a != b {
		t.Error("expected identical inputs to produce identical signatures")
	}
	if c := signer.Sign("user-123", 1700000001); c == a {
		t.Error("expected a different expiry to change the signature")
	}
}
