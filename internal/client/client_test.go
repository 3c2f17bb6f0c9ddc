package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"folio/api/internal/email"
	"folio/api/internal/portfolio"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", WithToken("tok"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" || r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected request %s auth=%q", r.URL.Path, r.Header.Get("Authorization"))
		}
		_, _ = io.WriteString(w, `{"status":"ok","timestamp":"2024-01-01T00:00:00Z","remote":"disconnected"}`)
	})

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "ok" || h.RemoteConnected() {
		t.Fatalf("unexpected health %+v", h)
	}
}

func TestMigratePostsLocalStorageData(t *testing.T) {
	var got map[string]map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/migrate/migrate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"success":true,"message":"Data migration completed","results":{
			"profile":{"name":"Ada"},"projects":[{"title":"A"}],"contacts":[],
			"gitSettings":null,"skipped":{"projects":2,"contacts":0},"errors":["x failed"]}}`)
	})

	data := map[string]string{portfolio.KeyProjects: `[{"title":"A"}]`}
	res, err := c.Migrate(context.Background(), data)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if diff := cmp.Diff(map[string]map[string]string{"localStorageData": data}, got); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}
	if !res.Success || len(res.Results.Projects) != 1 || res.Results.Skipped.Projects != 2 {
		t.Fatalf("unexpected response %+v", res)
	}
	if diff := cmp.Diff([]string{"x failed"}, res.Results.Errors); diff != "" {
		t.Fatalf("errors mismatch:\n%s", diff)
	}
}

func TestRemoteUnavailableIsSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"success":false,"code":"REMOTE_UNAVAILABLE","error":"Remote store not available","remoteAvailable":false}`)
	})

	_, err := c.MigrationStatus(context.Background())
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Remote store not available" {
		t.Fatalf("expected APIError with message, got %#v", err)
	}
}

func TestOtherServiceUnavailableCausesAreNotRemoteDown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"code":"EMAIL_NOT_CONFIGURED","error":"Email service not configured","details":"Email credentials not set in environment variables"}`)
	})

	_, err := c.SendEmail(context.Background(), email.ContactRequest{Name: "A", Email: "a@b.c", Message: "hi"})
	if errors.Is(err, ErrRemoteUnavailable) {
		t.Fatal("email configuration error must not read as remote unavailable")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "EMAIL_NOT_CONFIGURED" || apiErr.Details == nil {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestBare503IsRemoteDown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	})

	_, err := c.Health(context.Background())
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestCreateContact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var m portfolio.ContactMessage
		_ = json.NewDecoder(r.Body).Decode(&m)
		m.Subject = portfolio.DefaultContactTitle
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(RemoteContact{RemoteID: "abc", ContactMessage: m})
	})

	got, err := c.CreateContact(context.Background(), portfolio.ContactMessage{Name: "A", Email: "a@b.com", Message: "hi"})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if got.RemoteID != "abc" || got.Subject != "New Contact Form Submission" {
		t.Fatalf("unexpected contact %+v", got)
	}
}

func TestLoginErrorCarriesCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"INVALID_CREDENTIALS","error":"Invalid email or password"}`)
	})

	_, err := c.Login(context.Background(), "a@b.c", "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("unexpected error %v", err)
	}
}
