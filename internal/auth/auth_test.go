package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rebeliceyang/lazyca/internal/models"
)

func signedToken(t *testing.T, claims tokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestAccountFromToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	token := signedToken(t, tokenClaims{
		Auth: "ROLE_USER, ROLE_RA",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "officer",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})

	account, err := AccountFromToken(token, now)
	if err != nil {
		t.Fatalf("AccountFromToken failed: %v", err)
	}
	if account.Login != "officer" {
		t.Errorf("Expected login 'officer', got '%s'", account.Login)
	}
	if !account.HasRole(models.RoleRA) || account.HasRole(models.RoleAdmin) {
		t.Errorf("Unexpected authorities %v", account.Authorities)
	}

	if _, err := AccountFromToken(token, now.Add(2*time.Hour)); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}

	if _, err := AccountFromToken("not-a-token", now); err == nil {
		t.Error("Expected error for malformed token")
	}
}

func TestSecretStore(t *testing.T) {
	s := newSecretStoreWithRing(keyring.NewArrayKeyring(nil))

	if _, err := s.Get("https://ca", "ra", KindToken); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Expected ErrSecretNotFound, got %v", err)
	}

	if err := s.Save("https://ca", "ra", KindToken, "abc"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save("https://ca", "ra", KindPassword, ""); err != nil {
		t.Fatalf("Save of empty secret failed: %v", err)
	}

	got, err := s.Get("https://ca", "ra", KindToken)
	if err != nil || got != "abc" {
		t.Errorf("Expected 'abc', got '%s' (%v)", got, err)
	}
	if _, err := s.Get("https://ca", "ra", KindPassword); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Expected empty password not stored, got %v", err)
	}

	if err := s.Delete("https://ca", "ra", KindToken); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete("https://ca", "ra", KindToken); err != nil {
		t.Errorf("Delete of missing secret should succeed, got %v", err)
	}
}
