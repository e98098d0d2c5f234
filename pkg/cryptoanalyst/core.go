package cryptoanalyst

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// HTTPDoer is an interface for making HTTP requests. It enables dependency
// injection for testing without network calls.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// AIConfig holds the completion provider settings.
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Options controls Core initialization.
type Options struct {
	DBPath      string
	Logger      *slog.Logger
	AI          AIConfig
	NewsAPIKey  string
	HTTPTimeout time.Duration
	HTTPClient  HTTPDoer // Optional: inject custom client for testing
	SkipCatalog bool     // Optional: skip the startup catalog load (testing)
}

// Core provides access to the crypto analysis pipeline and session storage.
type Core struct {
	db      *sql.DB
	logger  *slog.Logger
	client  HTTPDoer
	ai      AIConfig
	newsKey string
	catalog map[string]AssetInfo
	dbPath  string
}

// Open initializes a Core using the provided database path.
func Open(dbPath string) (*Core, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Core using the provided options.
func OpenWithOptions(opts Options) (*Core, error) {
	if opts.DBPath == "" {
		return nil, errors.New("db path is required")
	}
	cleanPath := filepath.Clean(opts.DBPath)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Warn("pragma busy_timeout failed", "err", err)
	}

	if err := initDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}

	httpTimeout := defaultDuration(opts.HTTPTimeout, 10*time.Second)
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}

	ai := opts.AI
	ai.APIKey = strings.TrimSpace(ai.APIKey)
	ai.BaseURL = strings.TrimSpace(ai.BaseURL)
	ai.Model = strings.TrimSpace(ai.Model)
	if ai.Model == "" {
		ai.Model = defaultAIModel
	}

	c := &Core{
		db:      db,
		logger:  logger,
		client:  client,
		ai:      ai,
		newsKey: strings.TrimSpace(opts.NewsAPIKey),
		catalog: map[string]AssetInfo{},
		dbPath:  cleanPath,
	}

	if !opts.SkipCatalog {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		defer cancel()
		c.catalog = c.loadAssetCatalog(ctx)
	}

	return c, nil
}

// Close releases database resources.
func (c *Core) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DBPath returns the underlying database path.
func (c *Core) DBPath() string {
	return c.dbPath
}

// Logger returns the configured logger.
func (c *Core) Logger() *slog.Logger {
	return c.logger
}

// aiConfigured reports whether a completion credential is present.
func (c *Core) aiConfigured() bool {
	return c.ai.APIKey != ""
}

func (c *Core) completionRequest(messages []ChatMessage) aiChatCompletionRequest {
	return aiChatCompletionRequest{
		EndpointURL: c.ai.BaseURL,
		APIKey:      c.ai.APIKey,
		Model:       c.ai.Model,
		Messages:    messages,
		Logger:      c.logger,
	}
}

func defaultDuration(v time.Duration, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
