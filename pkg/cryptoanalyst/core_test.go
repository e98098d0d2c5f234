package cryptoanalyst

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenWithOptionsRequiresDBPath(t *testing.T) {
	_, err := OpenWithOptions(Options{})
	assertError(t, err, "missing db path")
}

func TestOpenWithOptionsDefaults(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "chat.db")
	core, err := OpenWithOptions(Options{
		DBPath:      dbPath,
		AI:          AIConfig{APIKey: "  key  "},
		SkipCatalog: true,
	})
	assertNoError(t, err, "open core")
	defer core.Close()

	if core.DBPath() != dbPath {
		t.Errorf("db path: got %q", core.DBPath())
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Errorf("db dir not created: %v", err)
	}
	if core.ai.APIKey != "key" {
		t.Errorf("api key not trimmed: %q", core.ai.APIKey)
	}
	if core.ai.Model != defaultAIModel {
		t.Errorf("model default: got %q", core.ai.Model)
	}
	if !core.aiConfigured() {
		t.Error("expected ai configured")
	}
	if core.Logger() == nil {
		t.Error("expected default logger")
	}
}

func TestCloseNilSafe(t *testing.T) {
	var core *Core
	if err := core.Close(); err != nil {
		t.Errorf("nil close: %v", err)
	}
	if err := (&Core{}).Close(); err != nil {
		t.Errorf("empty close: %v", err)
	}
}

func TestCompletionRequestCarriesConfig(t *testing.T) {
	core := setupTestCore(t, nil, AIConfig{APIKey: "k", BaseURL: "https://api.example.com/v1", Model: "m"})
	req := core.completionRequest([]ChatMessage{{Role: RoleUser, Content: "hi"}})
	if req.APIKey != "k" || req.EndpointURL != "https://api.example.com/v1" || req.Model != "m" {
		t.Errorf("request config: %+v", req)
	}
	if len(req.Messages) != 1 || req.Logger == nil {
		t.Errorf("request payload: %+v", req)
	}
}

func TestDefaultDuration(t *testing.T) {
	if got := defaultDuration(0, 10*time.Second); got != 10*time.Second {
		t.Errorf("zero: got %v", got)
	}
	if got := defaultDuration(-time.Second, 10*time.Second); got != 10*time.Second {
		t.Errorf("negative: got %v", got)
	}
	if got := defaultDuration(3*time.Second, 10*time.Second); got != 3*time.Second {
		t.Errorf("set: got %v", got)
	}
}
