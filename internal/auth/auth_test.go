package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/playlister/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

func TestPasswords(t *testing.T) {
	t.Run("hash and check", func(t *testing.T) {
		hash, err := HashPassword("password123")
		if err != nil {
			t.Fatalf("failed to hash: %v", err)
		}
		if hash == "password123" {
			t.Fatal("hash must not equal the password")
		}
		if err := CheckPassword(hash, "password123"); err != nil {
			t.Errorf("expected match, got %v", err)
		}
		if err := CheckPassword(hash, "password124"); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("too short", func(t *testing.T) {
		if _, err := HashPassword("short"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestIssuer(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		issuer := NewIssuer("secret", time.Hour)

		token, err := issuer.Issue("user-1")
		if err != nil {
			t.Fatalf("failed to issue: %v", err)
		}

		uid, err := issuer.Parse(token)
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if uid != "user-1" {
			t.Errorf("expected user-1, got %s", uid)
		}
	})

	t.Run("expired", func(t *testing.T) {
		issuer := NewIssuer("secret", time.Minute)
		issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

		token, err := issuer.Issue("user-1")
		if err != nil {
			t.Fatalf("failed to issue: %v", err)
		}

		issuer.now = time.Now
		if _, err := issuer.Parse(token); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _ := NewIssuer("one", time.Hour).Issue("user-1")
		if _, err := NewIssuer("two", time.Hour).Parse(token); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("rejects other algorithms", func(t *testing.T) {
		claims := &TokenClaims{UserID: "user-1"}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		if _, err := NewIssuer("secret", time.Hour).Parse(token); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := NewIssuer("secret", time.Hour).Parse("not.a.token"); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}
