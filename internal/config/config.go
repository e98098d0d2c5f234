package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Environment variables understood by the server. The legacy names are the
// ones the upstream data providers document; they remain honored as
// fallbacks.
const (
	envDataDir   = "CRYPTO_ANALYST_DATA_DIR"
	envDBPath    = "CRYPTO_ANALYST_DB_PATH"
	envDBName    = "CRYPTO_ANALYST_DB_NAME"
	envAIAPIKey  = "CRYPTO_ANALYST_AI_API_KEY"
	envAIBaseURL = "CRYPTO_ANALYST_AI_BASE_URL"
	envAIModel   = "CRYPTO_ANALYST_AI_MODEL"
	envNewsKey   = "CRYPTO_ANALYST_NEWS_API_KEY"

	legacyEnvAIAPIKey = "GOOGLE_API_KEY"
	legacyEnvNewsKey  = "CRYPTO_PANIC_API_KEY"
)

const defaultDBName = "chat.db"

// AIConfig holds the completion provider settings read from the environment.
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

var runtimeDataDir string
var runtimePort = 8000

func SetRuntimeDataDir(dir string) {
	runtimeDataDir = dir
}

func SetRuntimePort(port int) {
	if port > 0 {
		runtimePort = port
	}
}

func GetRuntimePort() int {
	return runtimePort
}

// LoadAIConfig reads the completion provider settings. A missing API key is
// not an error here; the core degrades to a configuration notice.
func LoadAIConfig() AIConfig {
	apiKey := strings.TrimSpace(os.Getenv(envAIAPIKey))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(legacyEnvAIAPIKey))
	}
	return AIConfig{
		APIKey:  apiKey,
		BaseURL: strings.TrimSpace(os.Getenv(envAIBaseURL)),
		Model:   strings.TrimSpace(os.Getenv(envAIModel)),
	}
}

// LoadNewsAPIKey reads the news feed credential.
func LoadNewsAPIKey() string {
	key := strings.TrimSpace(os.Getenv(envNewsKey))
	if key == "" {
		key = strings.TrimSpace(os.Getenv(legacyEnvNewsKey))
	}
	return key
}

func userHomeDir() (string, error) {
	return os.UserHomeDir()
}

func appConfigDir() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := userHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "CryptoAnalyst"), nil
	}
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := userHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "CryptoAnalyst"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := userHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "cryptoanalyst"), nil
	}
	return filepath.Join(configDir, "cryptoanalyst"), nil
}

// GetDataDir resolves the data directory (flag override, env, platform
// default, in that order) and ensures it exists.
func GetDataDir() (string, error) {
	if runtimeDataDir != "" {
		if err := os.MkdirAll(runtimeDataDir, 0o755); err != nil {
			return "", err
		}
		return runtimeDataDir, nil
	}
	if envDir := os.Getenv(envDataDir); envDir != "" {
		if err := os.MkdirAll(envDir, 0o755); err != nil {
			return "", err
		}
		return envDir, nil
	}
	defaultDir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(defaultDir, 0o755); err != nil {
		return "", err
	}
	return defaultDir, nil
}

// GetDBPath resolves the sqlite database path.
func GetDBPath() (string, error) {
	if envPath := os.Getenv(envDBPath); envPath != "" {
		return envPath, nil
	}
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(os.Getenv(envDBName))
	if name == "" {
		name = defaultDBName
	}
	return filepath.Join(dataDir, name), nil
}
