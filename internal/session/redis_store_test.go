package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

// stores runs fn against both backends.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("redis", func(t *testing.T) {
		store, _ := setupTestRedis(t)
		fn(t, store)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
}

func TestNewRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	if _, err := NewRedisStore("://nope"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveAndLookupRefresh(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		grant := Grant{Subject: "admin", Email: "owner@example.com", Role: "admin"}
		if err := s.SaveRefresh(ctx, "hash-1", grant, time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("SaveRefresh failed: %v", err)
		}
		got, err := s.LookupRefresh(ctx, "hash-1")
		if err != nil {
			t.Fatalf("LookupRefresh failed: %v", err)
		}
		if got.Subject != "admin" || got.Email != "owner@example.com" || got.Role != "admin" || got.CreatedAt.IsZero() {
			t.Fatalf("unexpected grant %+v", got)
		}
	})
}

func TestLookupMissingRefresh(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		if _, err := s.LookupRefresh(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRevokeRefresh(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		exp := time.Now().Add(time.Hour)
		_ = s.SaveRefresh(ctx, "one", Grant{Subject: "a"}, exp)
		_ = s.SaveRefresh(ctx, "two", Grant{Subject: "b"}, exp)

		if err := s.RevokeRefresh(ctx, "one"); err != nil {
			t.Fatalf("RevokeRefresh failed: %v", err)
		}
		if err := s.RevokeRefresh(ctx, "never-saved"); err != nil {
			t.Fatalf("revoking an unknown token should not fail: %v", err)
		}
		if _, err := s.LookupRefresh(ctx, "one"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected revoked token to be gone, got %v", err)
		}
		got, err := s.LookupRefresh(ctx, "two")
		if err != nil || got.Subject != "b" {
			t.Fatalf("other token affected: %+v err %v", got, err)
		}
	})
}

func TestRevokedAccessTokens(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.RevokeAccess(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("RevokeAccess failed: %v", err)
		}
		revoked, err := s.IsRevoked(ctx, "jti-1")
		if err != nil || !revoked {
			t.Fatalf("expected jti-1 revoked, got %v err %v", revoked, err)
		}
		revoked, err = s.IsRevoked(ctx, "jti-2")
		if err != nil || revoked {
			t.Fatalf("expected jti-2 not revoked, got %v err %v", revoked, err)
		}
	})
}

func TestRedisRefreshExpires(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	if err := store.SaveRefresh(ctx, "short", Grant{Subject: "a"}, time.Now().Add(time.Second)); err != nil {
		t.Fatalf("SaveRefresh failed: %v", err)
	}
	mr.FastForward(2 * time.Second)
	if _, err := store.LookupRefresh(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestMemoryRefreshExpires(t *testing.T) {
	m := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	_ = m.SaveRefresh(ctx, "short", Grant{Subject: "a"}, now.Add(time.Minute))
	_ = m.RevokeAccess(ctx, "jti", now.Add(time.Minute))
	now = now.Add(2 * time.Minute)

	if _, err := m.LookupRefresh(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired token, got %v", err)
	}
	if revoked, _ := m.IsRevoked(ctx, "jti"); revoked {
		t.Fatal("revocation should lapse with the token")
	}
}
