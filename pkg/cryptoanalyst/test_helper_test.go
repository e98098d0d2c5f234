package cryptoanalyst

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// mockHTTPClient implements HTTPDoer for testing, always returning the same
// canned response.
type mockHTTPClient struct {
	status int
	body   string
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(strings.NewReader(m.body)),
		Header:     make(http.Header),
	}, nil
}

// routeHTTPClient implements HTTPDoer with a per-request handler and records
// every requested URL, so tests can count upstream calls.
type routeHTTPClient struct {
	mu      sync.Mutex
	calls   []string
	handler func(req *http.Request) (*http.Response, error)
}

func (m *routeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req.URL.String())
	m.mu.Unlock()
	return m.handler(req)
}

func (m *routeHTTPClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func jsonResponse(status int, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

// setupTestCore creates a Core on a temporary database with the catalog
// load skipped. Pass a nil client when the test makes no HTTP calls.
func setupTestCore(t *testing.T, client HTTPDoer, ai AIConfig) *Core {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "cryptoanalyst-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	core, err := OpenWithOptions(Options{
		DBPath:      filepath.Join(tmpDir, "test.db"),
		HTTPClient:  client,
		AI:          ai,
		NewsAPIKey:  "test-news-key",
		SkipCatalog: true,
	})
	if err != nil {
		t.Fatalf("failed to open test core: %v", err)
	}
	t.Cleanup(func() { core.Close() })
	return core
}

// testAIConfig returns a configured completion credential for tests that
// stub aiChatCompletion.
func testAIConfig() AIConfig {
	return AIConfig{APIKey: "test-key", Model: "test-model"}
}

// stubCompletion swaps the completion function for the duration of a test.
// Tests using it must not run in parallel.
func stubCompletion(t *testing.T, fn func(ctx context.Context, req aiChatCompletionRequest) (aiChatCompletionResult, error)) {
	t.Helper()
	original := aiChatCompletion
	aiChatCompletion = fn
	t.Cleanup(func() { aiChatCompletion = original })
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertError fails the test if err is nil.
func assertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error but got nil", msg)
	}
}

// assertContains checks if the string contains the substring.
func assertContains(t *testing.T, s, substr, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: string %q does not contain %q", msg, s, substr)
	}
}
