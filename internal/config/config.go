// Package config loads and watches the worklens TOML configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/worklens/worklens/internal/logging"
)

var configLog = logging.ForComponent(logging.CompConfig)

// FileName is the TOML config file name inside the worklens directory.
const FileName = "config.toml"

// Config represents user-facing configuration in TOML format.
type Config struct {
	// Server defines the remote work-tracking server connection.
	Server ServerSettings `toml:"server"`

	// Download defines work item download behavior.
	Download DownloadSettings `toml:"download"`

	// Theme sets the color scheme: "dark" (default), "light", or "system"
	Theme string `toml:"theme"`

	// Logs defines log file management settings.
	Logs LogSettings `toml:"logs"`
}

// ServerSettings defines the remote server connection.
type ServerSettings struct {
	// URL is the server base URL, e.g. "https://dev.example.com"
	URL string `toml:"url"`

	// Collection is the project collection name (default: "defaultcollection")
	Collection string `toml:"collection"`

	// Project is the team project name.
	Project string `toml:"project"`

	// TokenEnv names the environment variable holding the personal access
	// token. The token itself never lives in the config file.
	TokenEnv string `toml:"token_env"`

	// RequestsPerSecond caps outgoing API calls (default: 10).
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// DownloadSettings defines work item download behavior.
type DownloadSettings struct {
	// BatchSize is the number of work item details fetched per request.
	// The server rejects oversized batches, so this is clamped to [1, 200].
	// Default: 100.
	BatchSize int `toml:"batch_size"`

	// IncludeHistory also fetches the discussion history per work item.
	// Slower (one extra request per item) but makes history searchable.
	IncludeHistory bool `toml:"include_history"`
}

// LogSettings defines log file management.
type LogSettings struct {
	// Level is "debug", "info", "warn", or "error" (default: "info")
	Level string `toml:"level"`

	// Format is "json" (default) or "text"
	Format string `toml:"format"`

	// MaxSizeMB before rotation (default: 10)
	MaxSizeMB int `toml:"max_size_mb"`
}

var defaultConfig = Config{
	Server: ServerSettings{
		Collection:        "defaultcollection",
		TokenEnv:          "WORKLENS_TOKEN",
		RequestsPerSecond: 10,
	},
	Download: DownloadSettings{
		BatchSize: 100,
	},
	Theme: "dark",
	Logs:  LogSettings{Level: "info"},
}

var (
	cache   *Config
	cacheMu sync.RWMutex
)

// Dir returns the worklens config/state directory (~/.worklens),
// overridable via WORKLENS_HOME for tests and multi-profile setups.
func Dir() (string, error) {
	if dir := os.Getenv("WORKLENS_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, ".worklens"), nil
}

// Path returns the full path to config.toml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load returns the cached config, reading it from disk on first call.
// A missing file yields the defaults; a parse error yields the defaults
// plus the error so the caller can surface it.
func Load() (*Config, error) {
	cacheMu.RLock()
	if cache != nil {
		defer cacheMu.RUnlock()
		return cache, nil
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cache != nil {
		return cache, nil
	}

	cfg, err := readFile()
	cache = cfg
	return cache, err
}

// Reload discards the cache and re-reads the config file.
func Reload() (*Config, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cfg, err := readFile()
	cache = cfg
	return cache, err
}

func readFile() (*Config, error) {
	path, err := Path()
	if err != nil {
		def := defaultConfig
		return &def, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		def := defaultConfig
		return &def, nil
	}

	cfg := defaultConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		def := defaultConfig
		return &def, fmt.Errorf("config.toml parse error: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Collection == "" {
		c.Server.Collection = "defaultcollection"
	}
	if c.Server.TokenEnv == "" {
		c.Server.TokenEnv = "WORKLENS_TOKEN"
	}
	if c.Server.RequestsPerSecond <= 0 {
		c.Server.RequestsPerSecond = 10
	}
	if c.Download.BatchSize <= 0 {
		c.Download.BatchSize = 100
	}
	if c.Download.BatchSize > 200 {
		c.Download.BatchSize = 200
	}
	if c.Theme == "" {
		c.Theme = "dark"
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
}

// Token resolves the personal access token from the configured env var.
func (c *Config) Token() string {
	return os.Getenv(c.Server.TokenEnv)
}

// Save writes the config to disk, creating the directory if needed.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	cacheMu.Lock()
	cache = cfg
	cacheMu.Unlock()
	return nil
}

// ClearCache resets the cached config. For tests.
func ClearCache() {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
}
