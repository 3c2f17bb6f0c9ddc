package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, svc *Service, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	NewHTTPServer(svc, "*").Handler().ServeHTTP(rr, req)
	var payload map[string]any
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response: %v body=%s", err, rr.Body.String())
		}
	}
	return rr, payload
}

func TestHealthEndpoint(t *testing.T) {
	svc := newTestService(&fakeMirror{})
	rr, response := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if response["status"] != "ok" {
		t.Errorf("expected status=ok, got %v", response["status"])
	}
	if response["remote"] != "connected" {
		t.Errorf("expected remote=connected, got %v", response["remote"])
	}
	if ts, _ := response["timestamp"].(string); ts == "" {
		t.Error("expected a timestamp")
	}
}

func TestHealthEndpoint_RemoteDisconnected(t *testing.T) {
	svc := newTestService(&fakeMirror{})
	svc.availability = fakeAvailability(false)
	rr, response := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("health must stay 200 in local-only mode, got %d", rr.Code)
	}
	if response["remote"] != "disconnected" {
		t.Errorf("expected remote=disconnected, got %v", response["remote"])
	}
}

func TestReadyEndpoint_Success(t *testing.T) {
	svc := newTestService(&fakeMirror{pingFn: func(context.Context) error { return nil }})
	rr, response := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if ok, exists := response["ok"]; !exists || ok != true {
		t.Errorf("expected ok=true, got %v", ok)
	}
	if status := response["status"]; status != "ready" {
		t.Errorf("expected status=ready, got %v", status)
	}
	checks, exists := response["checks"].(map[string]any)
	if !exists {
		t.Fatalf("expected checks object, got %v", response["checks"])
	}
	dbCheck, exists := checks["database"].(map[string]any)
	if !exists {
		t.Fatalf("expected database check, got %v", checks["database"])
	}
	if dbStatus := dbCheck["status"]; dbStatus != "ok" {
		t.Errorf("expected database status=ok, got %v", dbStatus)
	}
}

func TestReadyEndpoint_DatabaseFailure(t *testing.T) {
	svc := newTestService(&fakeMirror{pingFn: func(context.Context) error {
		return errors.New("connection refused")
	}})
	rr, response := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
	if ok := response["ok"]; ok != false {
		t.Errorf("expected ok=false, got %v", ok)
	}
	if status := response["status"]; status != "not_ready" {
		t.Errorf("expected status=not_ready, got %v", status)
	}
	checks, _ := response["checks"].(map[string]any)
	dbCheck, _ := checks["database"].(map[string]any)
	if dbCheck["status"] != "error" || dbCheck["error"] != "connection refused" {
		t.Errorf("unexpected database check %v", dbCheck)
	}
}

func TestHealthEndpoint_OptionsRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/anything", nil)
	rr, _ := serve(t, newTestService(&fakeMirror{}), req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for OPTIONS, got %d", rr.Code)
	}
}

func TestHealthEndpoint_CORSHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr, _ := serve(t, newTestService(&fakeMirror{}), req)

	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin=*, got %v", origin)
	}
	if cache := rr.Header().Get("Cache-Control"); cache != "no-store" {
		t.Errorf("expected Cache-Control=no-store, got %v", cache)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestCORSRestrictsToConfiguredOrigins(t *testing.T) {
	handler := NewHTTPServer(newTestService(&fakeMirror{}), "https://kanu.dev/, https://admin.kanu.dev").Handler()

	for origin, want := range map[string]string{
		"https://kanu.dev":       "https://kanu.dev",
		"https://admin.kanu.dev": "https://admin.kanu.dev",
		"https://evil.example":   "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", origin)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("origin %s: expected %q, got %q", origin, want, got)
		}
	}
}

func TestPingEndpoint(t *testing.T) {
	svc := newTestService(&fakeMirror{})
	svc.cfg.PingMessage = "pong from folio"
	_, response := serve(t, svc, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	if response["message"] != "pong from folio" {
		t.Errorf("expected configured ping message, got %v", response["message"])
	}
}

func TestPingMethod(t *testing.T) {
	tests := []struct {
		name      string
		pingError error
		wantError bool
	}{
		{name: "healthy database"},
		{name: "unhealthy database", pingError: errors.New("connection failed"), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeMirror{pingFn: func(context.Context) error { return tt.pingError }})
			err := svc.Ping(context.Background())
			if (err != nil) != tt.wantError {
				t.Errorf("Ping() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
