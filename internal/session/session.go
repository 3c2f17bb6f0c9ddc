// Package session stores admin refresh tokens and revoked access tokens.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("token not found or expired")

// Grant is what a refresh token stands for.
type Grant struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	SaveRefresh(ctx context.Context, tokenHash string, grant Grant, expiresAt time.Time) error
	LookupRefresh(ctx context.Context, tokenHash string) (Grant, error)
	RevokeRefresh(ctx context.Context, tokenHash string) error
	RevokeAccess(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Ping(ctx context.Context) error
}

// MemoryStore keeps sessions in process when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	refresh map[string]memoryGrant
	revoked map[string]time.Time
}

type memoryGrant struct {
	grant     Grant
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		refresh: make(map[string]memoryGrant),
		revoked: make(map[string]time.Time),
	}
}

func (m *MemoryStore) SaveRefresh(_ context.Context, tokenHash string, grant Grant, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = m.now()
	}
	m.refresh[tokenHash] = memoryGrant{grant: grant, expiresAt: expiresAt}
	return nil
}

func (m *MemoryStore) LookupRefresh(_ context.Context, tokenHash string) (Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.refresh[tokenHash]
	if !ok {
		return Grant{}, ErrNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.refresh, tokenHash)
		return Grant{}, ErrNotFound
	}
	return entry.grant, nil
}

func (m *MemoryStore) RevokeRefresh(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refresh, tokenHash)
	return nil
}

func (m *MemoryStore) RevokeAccess(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, exp := range m.revoked {
		if !now.Before(exp) {
			delete(m.revoked, k)
		}
	}
	m.revoked[jti] = expiresAt
	return nil
}

func (m *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[jti]
	return ok && m.now().Before(exp), nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
