// Package authpw checks the portfolio owner's admin credentials.
package authpw

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"folio/api/internal/portfolio"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotConfigured      = errors.New("admin credentials not configured")
)

// Verifier holds the single admin account of the portfolio.
type Verifier struct {
	email string
	name  string
	hash  []byte
}

// NewVerifier takes a bcrypt hash of the admin password.
func NewVerifier(email, name, passwordHash string) (*Verifier, error) {
	email = normalizeEmail(email)
	if email == "" || passwordHash == "" {
		return nil, ErrNotConfigured
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("admin password hash: %w", err)
	}
	return &Verifier{email: email, name: name, hash: []byte(passwordHash)}, nil
}

// FromPassword hashes a plain password, for development setups that only
// provide ADMIN_PASSWORD.
func FromPassword(email, name, password string) (*Verifier, error) {
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return NewVerifier(email, name, hash)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify returns the admin user when email and password match.
func (v *Verifier) Verify(_ context.Context, email, password string) (portfolio.AdminUser, error) {
	if v == nil {
		return portfolio.AdminUser{}, ErrNotConfigured
	}
	if email == "" || password == "" {
		return portfolio.AdminUser{}, ErrInvalidCredentials
	}
	emailMatch := subtle.ConstantTimeCompare([]byte(normalizeEmail(email)), []byte(v.email)) == 1
	// always run bcrypt so a wrong email costs the same as a wrong password
	pwErr := bcrypt.CompareHashAndPassword(v.hash, []byte(password))
	if !emailMatch || pwErr != nil {
		return portfolio.AdminUser{}, ErrInvalidCredentials
	}
	return v.Admin(), nil
}

func (v *Verifier) Admin() portfolio.AdminUser {
	return portfolio.AdminUser{Email: v.email, Name: v.name}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
