package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/campusworks/winter-registry/internal/catalog"
	"github.com/campusworks/winter-registry/internal/handler"
	"github.com/campusworks/winter-registry/internal/identity"
	"github.com/campusworks/winter-registry/internal/repository/sqlite"
	"github.com/campusworks/winter-registry/internal/service"
)

const (
	testSessionSecret = "test-secret-key-for-unit-tests-0"
	testAdminKey      = "test-admin-key"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("Load catalog: %v", err)
	}

	// Use cost 4 for fast tests; no relay configured.
	registrations := service.NewRegistrationService(db.Registrations(), nil, identity.DefaultConfig(), 4)
	sessions := service.NewSessionService(db.Registrations(), testSessionSecret)
	report := service.NewReportService(db.Registrations())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux,
		handler.NewRegistrationHandler(registrations, sessions, false),
		handler.NewAdminHandler(report, cat),
		handler.NewCatalogHandler(cat),
		handler.NewHealthHandler(report),
		testAdminKey,
	)
	return mux
}

func postJSON(t *testing.T, client *http.Client, url string, body map[string]any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestIntegration_RegisterSessionLookupReports(t *testing.T) {
	srv := httptest.NewServer(newTestMux(t))
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	// 1. Register with a roll-number identifier.
	resp := postJSON(t, client, srv.URL+"/api/register", map[string]any{
		"identifier": "22B1234",
		"phone":      "9876543210",
		"projectId":  "1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	if data["identifier"] != "22b1234" {
		t.Fatalf("expected normalized identifier, got %v", data["identifier"])
	}
	projects := data["projectIds"].([]any)
	if len(projects) != 1 || projects[0] != "1" {
		t.Fatalf("expected projectIds [1], got %v", projects)
	}

	// 2. The session mirror cookie reconciles against the store.
	resp, err = client.Get(srv.URL + "/api/session")
	if err != nil {
		t.Fatalf("GET /api/session: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// 3. Register the same person for a second project.
	resp = postJSON(t, client, srv.URL+"/api/register", map[string]any{
		"identifier": "22b1234",
		"phone":      "9876543210",
		"projectId":  "2",
	})
	body = decodeBody(t, resp)
	projects = body["data"].(map[string]any)["projectIds"].([]any)
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects after second register, got %v", projects)
	}

	// 4. Session view now carries the server's merged state.
	resp, err = client.Get(srv.URL + "/api/session")
	if err != nil {
		t.Fatalf("GET /api/session: %v", err)
	}
	body = decodeBody(t, resp)
	projects = body["data"].(map[string]any)["projectIds"].([]any)
	if len(projects) != 2 {
		t.Fatalf("expected session to mirror 2 projects, got %v", projects)
	}

	// 5. Lookup by roll number, case-insensitive.
	resp, err = client.Get(srv.URL + "/api/user/22B1234")
	if err != nil {
		t.Fatalf("GET /api/user: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user lookup: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// 6. Public stats reflect the single registration.
	resp, err = client.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	body = decodeBody(t, resp)
	stats := body["stats"].(map[string]any)
	if stats["total"].(float64) != 1 {
		t.Fatalf("expected total 1, got %v", stats["total"])
	}

	// 7. Admin CSV download needs the key.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/download", nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("GET /api/download without key: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("download without key: expected 401, got %d", resp.StatusCode)
	}

	req.Header.Set("X-Admin-Key", testAdminKey)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("GET /api/download: %v", err)
	}
	csvBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", resp.StatusCode)
	}
	lines := strings.Split(strings.TrimRight(string(csvBody), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "1;2") {
		t.Fatalf("expected semicolon-joined project ids, got %q", lines[1])
	}

	// 8. Admin HTML view renders.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/admin/view", nil)
	req.Header.Set("X-Admin-Key", testAdminKey)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("GET /admin/view: %v", err)
	}
	htmlBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin view: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(htmlBody), "22b1234") {
		t.Fatal("expected admin view to contain the registration")
	}
}

func TestIntegration_ValidationErrors(t *testing.T) {
	srv := httptest.NewServer(newTestMux(t))
	defer srv.Close()
	client := srv.Client()

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing phone", map[string]any{"identifier": "22b1234"}},
		{"foreign email", map[string]any{"identifier": "foo@other.com", "phone": "9876543210"}},
		{"bad phone", map[string]any{"identifier": "22b1234", "phone": "12345"}},
		{"no contact method", map[string]any{"identifier": "someone", "phone": "9876543210"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, client, srv.URL+"/api/register", tc.body)
			body := decodeBody(t, resp)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if body["success"] != false {
				t.Fatalf("expected success=false, got %v", body["success"])
			}
			if body["message"] == "" {
				t.Fatal("expected a human-readable reason")
			}
		})
	}
}

func TestIntegration_UserNotFound(t *testing.T) {
	srv := httptest.NewServer(newTestMux(t))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api/user/nobody@iitb.ac.in")
	if err != nil {
		t.Fatalf("GET /api/user: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestIntegration_AdminClear(t *testing.T) {
	srv := httptest.NewServer(newTestMux(t))
	defer srv.Close()
	client := srv.Client()

	resp := postJSON(t, client, srv.URL+"/api/register", map[string]any{
		"identifier": "22b1234", "phone": "9876543210", "projectId": "1",
	})
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/admin/clear", nil)
	req.Header.Set("X-Admin-Key", testAdminKey)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/admin/clear: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	body := decodeBody(t, resp)
	if body["stats"].(map[string]any)["total"].(float64) != 0 {
		t.Fatal("expected empty store after clear")
	}
}

func TestIntegration_Projects(t *testing.T) {
	srv := httptest.NewServer(newTestMux(t))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api/projects")
	if err != nil {
		t.Fatalf("GET /api/projects: %v", err)
	}
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	projects := body["data"].([]any)
	if len(projects) != 4 {
		t.Fatalf("expected 4 catalog projects, got %d", len(projects))
	}
}
