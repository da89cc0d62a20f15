package auth

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewTokenManager("test-key", time.Hour)

	token, expires, err := m.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expires) < 59*time.Minute {
		t.Errorf("expiry %v is too close", expires)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}

	other, _, _ := m.GenerateToken("user-1")
	if other == token {
		t.Error("two tokens for the same user should differ")
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, _, _ := NewTokenManager("key-a", time.Hour).GenerateToken("u")
	if _, err := NewTokenManager("key-b", time.Hour).ValidateToken(token); err == nil {
		t.Fatal("expected error for token signed with another key")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewTokenManager("k", time.Hour)
	m.ttl = -time.Minute
	token, _, _ := m.GenerateToken("u")
	if _, err := m.ValidateToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/chats", nil)
	r.Header.Set("Authorization", "Bearer abc")
	if got, err := TokenFromRequest(r); err != nil || got != "abc" {
		t.Errorf("TokenFromRequest(header) = %q, %v", got, err)
	}

	r = httptest.NewRequest("GET", "/ws/chats?token=xyz", nil)
	if got, err := TokenFromRequest(r); err != nil || got != "xyz" {
		t.Errorf("TokenFromRequest(query) = %q, %v", got, err)
	}

	r = httptest.NewRequest("GET", "/chats", nil)
	r.Header.Set("Authorization", "Basic abc")
	if _, err := TokenFromRequest(r); err == nil {
		t.Error("expected error for non-bearer header")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPasswordHash("s3cret", hash) {
		t.Error("CheckPasswordHash() = false for the right password")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("CheckPasswordHash() = true for a wrong password")
	}
}
