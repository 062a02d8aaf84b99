package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"

	"github.com/sipeed/alfred/pkg/utils"
)

type Config struct {
	Paths    PathsConfig    `json:"paths"`
	Dispatch DispatchConfig `json:"dispatch"`
	NL       NLConfig       `json:"nl"`
	Feedback FeedbackConfig `json:"feedback"`
	History  HistoryConfig  `json:"history"`
	Narrate  NarrateConfig  `json:"narrate"`
	Log      LogConfig      `json:"log"`
	mu       sync.RWMutex
}

// PathsConfig locates the files alfred reads and writes. Relative paths are
// taken relative to the alfred home directory.
type PathsConfig struct {
	Catalog   string `json:"catalog" env:"ALFRED_PATHS_CATALOG"`
	Rules     string `json:"rules" env:"ALFRED_PATHS_RULES"`
	HistoryDB string `json:"history_db" env:"ALFRED_PATHS_HISTORY_DB"`
	Sessions  string `json:"sessions" env:"ALFRED_PATHS_SESSIONS"`
	// Root overrides the directory scripts run in. Empty means the directory
	// holding the catalog.
	Root string `json:"root,omitempty" env:"ALFRED_PATHS_ROOT"`
}

type DispatchConfig struct {
	TimeoutSeconds int  `json:"timeout_seconds" env:"ALFRED_DISPATCH_TIMEOUT_SECONDS"`
	WatchCatalog   bool `json:"watch_catalog" env:"ALFRED_DISPATCH_WATCH_CATALOG"`
}

type NLConfig struct {
	Enabled           bool   `json:"enabled" env:"ALFRED_NL_ENABLED"`
	Provider          string `json:"provider" env:"ALFRED_NL_PROVIDER"`
	BaseURL           string `json:"base_url" env:"ALFRED_NL_BASE_URL"`
	Model             string `json:"model" env:"ALFRED_NL_MODEL"`
	APIKey            string `json:"api_key,omitempty" env:"ALFRED_NL_API_KEY"`
	Proxy             string `json:"proxy,omitempty" env:"ALFRED_NL_PROXY"`
	TimeoutSeconds    int    `json:"timeout_seconds" env:"ALFRED_NL_TIMEOUT_SECONDS"`
	RequestsPerMinute int    `json:"requests_per_minute" env:"ALFRED_NL_REQUESTS_PER_MINUTE"` // 0 = unlimited
}

type FeedbackConfig struct {
	PositiveDelta float64 `json:"positive_delta" env:"ALFRED_FEEDBACK_POSITIVE_DELTA"`
	NegativeDelta float64 `json:"negative_delta" env:"ALFRED_FEEDBACK_NEGATIVE_DELTA"`
}

type HistoryConfig struct {
	Enabled bool `json:"enabled" env:"ALFRED_HISTORY_ENABLED"`
}

type NarrateConfig struct {
	Enabled bool   `json:"enabled" env:"ALFRED_NARRATE_ENABLED"`
	Model   string `json:"model,omitempty" env:"ALFRED_NARRATE_MODEL"`
}

type LogConfig struct {
	Level string `json:"level" env:"ALFRED_LOG_LEVEL"`
	File  string `json:"file,omitempty" env:"ALFRED_LOG_FILE"`
}

// LoadConfig reads path over the defaults and applies ALFRED_* environment
// overrides. A missing file is not an error. Relative paths are resolved
// against the directory holding the config file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data, 0o600, 0o755)
}

func (c *Config) resolvePaths(home string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Paths.Catalog = resolveUnder(home, c.Paths.Catalog)
	c.Paths.Rules = resolveUnder(home, c.Paths.Rules)
	c.Paths.HistoryDB = resolveUnder(home, c.Paths.HistoryDB)
	c.Paths.Sessions = resolveUnder(home, c.Paths.Sessions)
	if c.Paths.Root != "" {
		c.Paths.Root = resolveUnder(home, c.Paths.Root)
	}
}

func (c *Config) CatalogPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Paths.Catalog
}

func (c *Config) RulesPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Paths.Rules
}

func (c *Config) HistoryPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Paths.HistoryDB
}

func (c *Config) SessionsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Paths.Sessions
}

func resolveUnder(home, path string) string {
	path = expandHome(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(home, path)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
