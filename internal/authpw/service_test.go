package authpw

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestVerifyAcceptsMatchingCredentials(t *testing.T) {
	v, err := FromPassword("Owner@Example.com", "Kanu", "correct-horse")
	if err != nil {
		t.Fatalf("FromPassword: %v", err)
	}

	admin, err := v.Verify(context.Background(), " owner@example.com ", "correct-horse")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if admin.Email != "owner@example.com" || admin.Name != "Kanu" {
		t.Fatalf("unexpected admin %+v", admin)
	}
}

func TestVerifyRejectsWrongCredentials(t *testing.T) {
	v, err := FromPassword("owner@example.com", "Kanu", "correct-horse")
	if err != nil {
		t.Fatalf("FromPassword: %v", err)
	}

	cases := []struct{ email, password string }{
		{"owner@example.com", "wrong-password"},
		{"someone@example.com", "correct-horse"},
		{"", "correct-horse"},
		{"owner@example.com", ""},
	}
	for _, tc := range cases {
		if _, err := v.Verify(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Verify(%q, %q) = %v, want ErrInvalidCredentials", tc.email, tc.password, err)
		}
	}
}

func TestNewVerifierValidatesHash(t *testing.T) {
	if _, err := NewVerifier("owner@example.com", "", ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewVerifier("owner@example.com", "", "plain-text"); err == nil {
		t.Fatal("expected invalid hash to be rejected")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	v, err := NewVerifier("owner@example.com", "", string(hash))
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if _, err := v.Verify(context.Background(), "owner@example.com", "secret-pass"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestFromPasswordRejectsShortPasswords(t *testing.T) {
	if _, err := FromPassword("owner@example.com", "", "short"); err == nil {
		t.Fatal("expected short password to be rejected")
	}
}

func TestNilVerifierIsNotConfigured(t *testing.T) {
	var v *Verifier
	if _, err := v.Verify(context.Background(), "a@b.com", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
