package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cryptoanalyst/pkg/cryptoanalyst"
)

// setupTestRouter builds the API over a Core with a temporary database and
// no AI credential, so analysis takes the configuration-notice path.
func setupTestRouter(t *testing.T) http.Handler {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "cryptoanalyst-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	core, err := cryptoanalyst.OpenWithOptions(cryptoanalyst.Options{
		DBPath:      filepath.Join(tmpDir, "test.db"),
		SkipCatalog: true,
	})
	if err != nil {
		t.Fatalf("failed to open test core: %v", err)
	}
	t.Cleanup(func() { core.Close() })
	return NewRouter(core)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("body: %v", body)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing question", `{}`},
		{"blank question", `{"question": "   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/analyze", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", rec.Code)
			}
		})
	}
}

func TestAnalyzeWithoutCredential(t *testing.T) {
	router := setupTestRouter(t)
	rec := doRequest(t, router, http.MethodPost, "/api/analyze", `{"question": "How is bitcoin doing?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var result cryptoanalyst.AnalysisResult
	decodeBody(t, rec, &result)
	if !strings.Contains(result.Narrative, "API key") {
		t.Errorf("expected configuration notice, got %q", result.Narrative)
	}
	if len(result.Quotes) != 0 || len(result.News) != 0 || len(result.FollowUps) != 0 {
		t.Errorf("expected empty lists, got %+v", result)
	}
}

func TestAnalyzeUnknownSession(t *testing.T) {
	router := setupTestRouter(t)
	rec := doRequest(t, router, http.MethodPost, "/api/analyze", `{"question": "Q?", "session_id": 9999}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestAnalyzeAppendsToSession(t *testing.T) {
	router := setupTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/sessions", `{"messages": [
		{"role": "user", "content": "earlier question"},
		{"role": "assistant", "content": "earlier answer"}
	]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &created)

	body := fmt.Sprintf(`{"question": "What changed?", "session_id": %d}`, created.ID)
	rec = doRequest(t, router, http.MethodPost, "/api/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status: got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/sessions/%d", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("load status: got %d", rec.Code)
	}
	var session sessionResponse
	decodeBody(t, rec, &session)
	if len(session.Messages) != 4 {
		t.Fatalf("expected 4 messages after analyze, got %d", len(session.Messages))
	}
	if session.Messages[2].Content != "What changed?" || session.Messages[2].Role != cryptoanalyst.RoleUser {
		t.Errorf("appended question: %+v", session.Messages[2])
	}
	if session.Messages[3].Role != cryptoanalyst.RoleAssistant {
		t.Errorf("appended answer: %+v", session.Messages[3])
	}
}

func TestSessionLifecycle(t *testing.T) {
	router := setupTestRouter(t)

	// Save: one message keeps name generation on the timestamp fallback.
	rec := doRequest(t, router, http.MethodPost, "/api/sessions", `{"messages": [
		{"role": "user", "content": "only question"}
	]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	decodeBody(t, rec, &created)
	if created.ID == 0 || !strings.HasPrefix(created.Name, "Chat ") {
		t.Errorf("created session: %+v", created)
	}

	// List
	rec = doRequest(t, router, http.MethodGet, "/api/sessions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d", rec.Code)
	}
	var sessions []cryptoanalyst.ChatSessionSummary
	decodeBody(t, rec, &sessions)
	if len(sessions) != 1 || sessions[0].ID != created.ID {
		t.Errorf("sessions: %+v", sessions)
	}

	// Update
	rec = doRequest(t, router, http.MethodPut, fmt.Sprintf("/api/sessions/%d", created.ID), `{"messages": [
		{"role": "user", "content": "replaced"},
		{"role": "assistant", "content": "fine"}
	]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status: got %d, body %s", rec.Code, rec.Body.String())
	}

	// Load
	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/sessions/%d", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("load status: got %d", rec.Code)
	}
	var session sessionResponse
	decodeBody(t, rec, &session)
	if len(session.Messages) != 2 || session.Messages[0].Content != "replaced" {
		t.Errorf("loaded session: %+v", session)
	}

	// Delete, then verify 404 on reload.
	rec = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/sessions/%d", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d", rec.Code)
	}
	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/sessions/%d", created.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("reload status: got %d, want 404", rec.Code)
	}
	var errBody ErrorResponse
	decodeBody(t, rec, &errBody)
	if errBody.ErrorCode != string(cryptoanalyst.ErrCodeNotFound) {
		t.Errorf("error code: got %q", errBody.ErrorCode)
	}
}

func TestSessionIDValidation(t *testing.T) {
	router := setupTestRouter(t)
	for _, path := range []string{"/api/sessions/abc", "/api/sessions/0", "/api/sessions/-3"} {
		rec := doRequest(t, router, http.MethodGet, path, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", path, rec.Code)
		}
	}
}
