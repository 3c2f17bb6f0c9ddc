package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"folio/api/internal/portfolio"
)

// resetPublicSchema drops and recreates the public schema.
func resetPublicSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	return err
}

func openIntegrationStore(t *testing.T) (*PostgresStore, context.Context) {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("FOLIO_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("FOLIO_TEST_DATABASE_URL is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db), ctx
}

func TestPostgresProfileDefaultsAndPatch(t *testing.T) {
	s, ctx := openIntegrationStore(t)

	rec, err := s.GetOrCreateProfile(ctx, "tenant")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if rec.Name != portfolio.DefaultName || rec.ID == "" {
		t.Fatalf("unexpected default profile %+v", rec)
	}

	logo := "FP"
	rec, err = s.PatchProfile(ctx, "tenant", portfolio.ProfilePatch{LogoText: &logo})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if rec.LogoText != "FP" || rec.Tagline != portfolio.DefaultTagline {
		t.Fatalf("unexpected patched profile %+v", rec.Profile)
	}
}

func TestPostgresFindProjectPrefersClientKey(t *testing.T) {
	s, ctx := openIntegrationStore(t)

	legacy, err := s.InsertProject(ctx, "tenant", portfolio.Project{Title: "Same", Description: "legacy"})
	if err != nil {
		t.Fatalf("insert legacy: %v", err)
	}
	keyed, err := s.InsertProject(ctx, "tenant", portfolio.Project{Title: "Keyed", Description: "d", ClientKey: "k-1"})
	if err != nil {
		t.Fatalf("insert keyed: %v", err)
	}

	got, ok, err := s.FindProject(ctx, "tenant", "k-1", "Renamed locally")
	if err != nil || !ok || got.ID != keyed.ID {
		t.Fatalf("expected key match, got %+v ok=%v err=%v", got, ok, err)
	}
	got, ok, err = s.FindProject(ctx, "tenant", "k-2", "Same")
	if err != nil || !ok || got.ID != legacy.ID {
		t.Fatalf("expected legacy title match, got %+v ok=%v err=%v", got, ok, err)
	}
	_, ok, err = s.FindProject(ctx, "tenant", "k-3", "Keyed")
	if err != nil || ok {
		t.Fatalf("keyed records must not match by title, ok=%v err=%v", ok, err)
	}

	counts, err := s.Counts(ctx, "tenant")
	if err != nil || counts.ProjectsCount != 2 || !counts.Migrated() {
		t.Fatalf("unexpected counts %+v err %v", counts, err)
	}

	removed, err := s.DeleteProject(ctx, "tenant", legacy.ID)
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	if _, err := s.GetProject(ctx, "tenant", legacy.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresContactLifecycle(t *testing.T) {
	s, ctx := openIntegrationStore(t)

	rec, err := s.InsertContact(ctx, "tenant", portfolio.ContactMessage{
		Name: "A", Email: "a@b.com", Subject: "Hi", Message: "m", Status: portfolio.ContactNew,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	rec.Status = portfolio.ContactReplied
	updated, err := s.UpdateContact(ctx, "tenant", rec.ID, rec.ContactMessage)
	if err != nil || updated.Status != portfolio.ContactReplied {
		t.Fatalf("update: %+v err %v", updated, err)
	}
	got, ok, err := s.FindContact(ctx, "tenant", "", "A", "a@b.com", "Hi")
	if err != nil || !ok || got.ID != rec.ID {
		t.Fatalf("expected heuristic match, got %+v ok=%v err=%v", got, ok, err)
	}

	gs, err := s.GetOrCreateGitSettings(ctx, "tenant")
	if err != nil || gs.Username != portfolio.DefaultGitUsername {
		t.Fatalf("git settings: %+v err %v", gs, err)
	}
}
