package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"folio/api/internal/portfolio"
	"folio/api/internal/search"
	"folio/api/internal/store"
)

func TestRemoteUnavailablePayload(t *testing.T) {
	svc := newTestService(&fakeMirror{})
	svc.availability = fakeAvailability(false)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/projects", nil),
		httptest.NewRequest(http.MethodGet, "/api/profile", nil),
		postJSON("/api/contacts", `{"name":"A","email":"a@b.com","message":"hi"}`),
		postJSON("/api/migrate/migrate", `{"localStorageData":{}}`),
	} {
		rr, payload := serve(t, svc, req)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s %s: expected 503, got %d", req.Method, req.URL.Path, rr.Code)
		}
		if payload["code"] != "REMOTE_UNAVAILABLE" || payload["success"] != false || payload["remoteAvailable"] != false {
			t.Fatalf("%s %s: unexpected payload %v", req.Method, req.URL.Path, payload)
		}
	}
}

func TestMigrationStatusInLocalOnlyMode(t *testing.T) {
	svc := newTestService(&fakeMirror{})
	svc.availability = fakeAvailability(false)
	rr, payload := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/migrate/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if payload["remoteAvailable"] != false || payload["migrated"] != false || payload["projectsCount"] != float64(0) {
		t.Fatalf("unexpected status %v", payload)
	}
	if msg, _ := payload["message"].(string); !strings.Contains(msg, "local-only") {
		t.Fatalf("expected local-only message, got %q", msg)
	}
}

func TestMigrationStatusReportsCounts(t *testing.T) {
	svc := newTestService(&fakeMirror{countsFn: func(context.Context, string) (store.MirrorCounts, error) {
		return store.MirrorCounts{HasProfile: true, ProjectsCount: 4, ContactsCount: 2}, nil
	}})
	_, payload := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/migrate/status", nil))

	if payload["migrated"] != true || payload["projectsCount"] != float64(4) || payload["remoteAvailable"] != true {
		t.Fatalf("unexpected status %v", payload)
	}
}

func TestMigrateEndpoint(t *testing.T) {
	m, projects, _ := memoryMirror()
	svc := newTestService(m)
	body := `{"localStorageData":{
		"adminProjects":"[{\"id\":1,\"title\":\"A\",\"description\":\"a\",\"clientKey\":\"k1\"}]",
		"contactMessages":null
	}}`

	rr, payload := serve(t, svc, postJSON("/api/migrate/migrate", body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if payload["success"] != true || payload["message"] != "Data migration completed" {
		t.Fatalf("unexpected payload %v", payload)
	}
	results, _ := payload["results"].(map[string]any)
	if got, _ := results["projects"].([]any); len(got) != 1 {
		t.Fatalf("expected one migrated project, got %v", results["projects"])
	}
	if len(*projects) != 1 || (*projects)[0].FullDescription == "" {
		t.Fatalf("expected the project stored with details, got %+v", *projects)
	}

	rr, payload = serve(t, svc, postJSON("/api/migrate/migrate", `{}`))
	if rr.Code != http.StatusUnprocessableEntity || payload["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected 422 without localStorageData, got %d %v", rr.Code, payload)
	}
}

func TestContactUpdateIgnoresFieldsOtherThanStatus(t *testing.T) {
	var saved portfolio.ContactMessage
	svc := newTestService(&fakeMirror{
		getContactFn: func(context.Context, string, string) (store.ContactRecord, error) {
			return store.ContactRecord{ID: "c1", ContactMessage: portfolio.ContactMessage{
				Name: "A", Email: "a@b.com", Message: "hi", Status: portfolio.ContactNew,
			}}, nil
		},
		updateContactFn: func(_ context.Context, _, id string, m portfolio.ContactMessage) (store.ContactRecord, error) {
			saved = m
			return store.ContactRecord{ID: id, ContactMessage: m}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/contacts/c1", bytes.NewBufferString(`{"status":"replied","name":"Mallory"}`))
	rr, payload := serve(t, svc, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if saved.Name != "A" || saved.Status != portfolio.ContactReplied || payload["status"] != "replied" {
		t.Fatalf("unexpected update %+v / %v", saved, payload)
	}
}

func TestMissingRecordsReturnNotFound(t *testing.T) {
	svc := newTestService(&fakeMirror{})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/projects/nope", nil),
		httptest.NewRequest(http.MethodDelete, "/api/projects/nope", nil),
		httptest.NewRequest(http.MethodDelete, "/api/contacts/nope", nil),
		httptest.NewRequest(http.MethodGet, "/api/unknown", nil),
	} {
		rr, payload := serve(t, svc, req)
		if rr.Code != http.StatusNotFound || payload["code"] != "NOT_FOUND" {
			t.Fatalf("%s %s: expected 404 NOT_FOUND, got %d %v", req.Method, req.URL.Path, rr.Code, payload)
		}
	}
}

func TestDeleteProjectMessage(t *testing.T) {
	svc := newTestService(&fakeMirror{deleteProjectFn: func(context.Context, string, string) (bool, error) { return true, nil }})
	rr, payload := serve(t, svc, httptest.NewRequest(http.MethodDelete, "/api/projects/abc", nil))

	if rr.Code != http.StatusOK || payload["message"] != "Project deleted successfully" {
		t.Fatalf("unexpected response %d %v", rr.Code, payload)
	}
}

func TestProfileFieldRoutes(t *testing.T) {
	var patch portfolio.ProfilePatch
	svc := newTestService(&fakeMirror{patchProfileFn: func(_ context.Context, _ string, p portfolio.ProfilePatch) (store.ProfileRecord, error) {
		patch = p
		return store.ProfileRecord{Profile: p.Apply(portfolio.DefaultProfile())}, nil
	}})

	req := httptest.NewRequest(http.MethodPut, "/api/profile/logo", bytes.NewBufferString(`{"logoText":"KP"}`))
	rr, payload := serve(t, svc, req)
	if rr.Code != http.StatusOK || patch.LogoText == nil || *patch.LogoText != "KP" || payload["logoText"] != "KP" {
		t.Fatalf("unexpected logo update %d %v", rr.Code, payload)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/profile/resume", bytes.NewBufferString(`{"other":"x"}`))
	rr, payload = serve(t, svc, req)
	if rr.Code != http.StatusUnprocessableEntity || payload["error"] != "resumeUrl is required" {
		t.Fatalf("expected 422 for missing field, got %d %v", rr.Code, payload)
	}
}

func TestSendEmailEndpoint(t *testing.T) {
	svc := newTestService(&fakeMirror{})
	rr, payload := serve(t, svc, postJSON("/api/send-email", `{"name":"A","email":"a@b.com","message":"hi","subject":"Hello"}`))
	if rr.Code != http.StatusOK || payload["success"] != true || payload["development"] != true {
		t.Fatalf("expected simulated success, got %d %v", rr.Code, payload)
	}

	rr, payload = serve(t, svc, postJSON("/api/send-email", `{"name":"A"}`))
	if rr.Code != http.StatusBadRequest || payload["error"] != "Missing required fields" {
		t.Fatalf("expected 400, got %d %v", rr.Code, payload)
	}
}

type recordingSearcher struct {
	last search.Query
}

func (r *recordingSearcher) Search(_ context.Context, q search.Query) ([]search.Result, int, error) {
	r.last = q
	return []search.Result{{ID: "1", Type: search.ResultProject, Title: "CLI"}}, 1, nil
}

func (r *recordingSearcher) Healthy() bool { return true }

func TestSearchScopesAnonymousCallers(t *testing.T) {
	rec := &recordingSearcher{}
	svc := newAuthService(t)
	svc.search = search.NewService(nil, rec)

	_, payload := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/search?q=cli&limit=5", nil))
	if payload["engine"] != "fallback" || payload["total"] != float64(1) {
		t.Fatalf("unexpected response %v", payload)
	}
	if rec.last.PublicOnly || rec.last.UserID != "kanu-portfolio" || rec.last.Limit != 5 {
		t.Fatalf("unexpected query %+v", rec.last)
	}

	svc.cfg.RequireAdminAuth = true
	serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/search?q=cli", nil))
	if !rec.last.PublicOnly {
		t.Fatal("anonymous search must be public-only when admin auth is required")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=cli", nil)
	req.Header.Set("Authorization", "Bearer "+login(t, svc)["token"].(string))
	serve(t, svc, req)
	if rec.last.PublicOnly {
		t.Fatal("admin search must include private records")
	}

	rr, _ := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/search?type=skill", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown type, got %d", rr.Code)
	}
}

func TestExportPortfolioHTML(t *testing.T) {
	svc := newTestService(&fakeMirror{listProjectsFn: func(context.Context, string) ([]store.ProjectRecord, error) {
		return []store.ProjectRecord{{ID: "1", Project: portfolio.Project{
			Title: "Weather App", Description: "Forecasts", Status: portfolio.StatusLive,
		}}}, nil
	}})

	rr, _ := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/export/portfolio?format=html", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "Portfolio.html") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !strings.Contains(rr.Body.String(), "Weather App") {
		t.Fatal("expected the project in the document")
	}

	rr, _ = serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/export/portfolio?format=odt", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unsupported format, got %d", rr.Code)
	}
}
