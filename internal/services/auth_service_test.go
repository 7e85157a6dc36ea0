package services

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestAuthService(accessTTL time.Duration) *authServiceImpl {
	return &authServiceImpl{
		logger:             zerolog.Nop(),
		jwtIssuer:          "task-buddy",
		jwtSigningKey:      []byte("test-signing-key"),
		jwtAccessTokenTTL:  accessTTL,
		jwtRefreshTokenTTL: time.Hour,
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	s := newTestAuthService(time.Minute)

	token, expiresAt, err := s.generateAccessToken("session-1")
	if err != nil {
		t.Fatalf("generateAccessToken() err=%v, want nil", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("generateAccessToken() expiresAt=%v, want a future time", expiresAt)
	}

	claims, err := s.ParseJWTToken(token)
	if err != nil {
		t.Fatalf("ParseJWTToken() err=%v, want nil", err)
	}
	if claims.Subject != "session-1" {
		t.Fatalf("ParseJWTToken() subject=%q, want session-1", claims.Subject)
	}
	if claims.Issuer != "task-buddy" {
		t.Fatalf("ParseJWTToken() issuer=%q, want task-buddy", claims.Issuer)
	}
}

func TestParseJWTToken_RejectsExpired(t *testing.T) {
	s := newTestAuthService(-time.Minute)

	token, _, err := s.generateAccessToken("session-1")
	if err != nil {
		t.Fatalf("generateAccessToken() err=%v, want nil", err)
	}

	_, err = s.ParseJWTToken(token)
	if err == nil {
		t.Fatal("ParseJWTToken() accepted an expired token")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("ParseJWTToken() err=%v, want an expiry error", err)
	}
}

func TestParseJWTToken_RejectsForeignKey(t *testing.T) {
	s := newTestAuthService(time.Minute)
	token, _, err := s.generateAccessToken("session-1")
	if err != nil {
		t.Fatalf("generateAccessToken() err=%v, want nil", err)
	}

	other := newTestAuthService(time.Minute)
	other.jwtSigningKey = []byte("another-key")
	if _, err = other.ParseJWTToken(token); err == nil {
		t.Fatal("ParseJWTToken() accepted a token signed with a different key")
	}
}

func TestGenerateRefreshToken_URLSafe(t *testing.T) {
	s := newTestAuthService(time.Minute)

	token, err := s.generateRefreshToken()
	if err != nil {
		t.Fatalf("generateRefreshToken() err=%v, want nil", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("refresh token is not url-safe base64: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("refresh token carries %d random bytes, want 32", len(raw))
	}
}
