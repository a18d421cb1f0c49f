package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir       string   `toml:"data_dir"`
	LogDir        string   `toml:"log_dir"`
	SharedFolders []string `toml:"shared_folders"`
	APIBind       string   `toml:"api_bind"`
	APIToken      string   `toml:"api_token"`
}

// Network controls whether the server may reach external services at all.
type Network struct {
	ExternalNetwork bool `toml:"external_network"`
}

// Catalog contains configuration for the remote metadata catalog API.
type Catalog struct {
	LookupsEnabled    bool    `toml:"lookups_enabled"`
	BaseURL           string  `toml:"base_url"`
	Language          string  `toml:"language"`
	UserAgent         string  `toml:"user_agent"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Cache contains configuration for the media metadata cache and its persistent store.
type Cache struct {
	Enabled    bool `toml:"enabled"`
	MaxEntries int  `toml:"max_entries"`
}

// Parser contains configuration for the native media probing tools.
type Parser struct {
	FFprobeBinary  string `toml:"ffprobe_binary"`
	UseMediaInfo   bool   `toml:"use_media_info"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	FollowSymlinks bool   `toml:"follow_symlinks"`
}

// Enrichment contains configuration for the background metadata lookup workers.
type Enrichment struct {
	MaxWorkers              int `toml:"max_workers"`
	IdleTimeoutSeconds      int `toml:"idle_timeout_seconds"`
	FailedLookupWindowHours int `toml:"failed_lookup_window_hours"`
}

// Library contains configuration for shared folder scanning.
type Library struct {
	Watch          bool   `toml:"watch"`
	ScanOnStart    bool   `toml:"scan_on_start"`
	RescanSchedule string `toml:"rescan_schedule"`
	PruneSchedule  string `toml:"prune_schedule"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Metrics contains configuration for the prometheus endpoint.
type Metrics struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for mediahub.
//
// Configuration sections by subsystem:
//   - Paths: data, log and shared folders plus the API bind address
//   - Network: master switch for external network access
//   - Catalog: remote metadata catalog lookups
//   - Cache: in-memory metadata cache bound and persistent store switch
//   - Parser: ffprobe settings and richer parsing during validation
//   - Enrichment: background worker pool and negative cache window
//   - Library: scanning, watching and scheduled rescans
//   - Logging: log format, level, and retention
//   - Notifications: ntfy scan summaries and error alerts
//   - Metrics: prometheus exposition
type Config struct {
	Paths         Paths         `toml:"paths"`
	Network       Network       `toml:"network"`
	Catalog       Catalog       `toml:"catalog"`
	Cache         Cache         `toml:"cache"`
	Parser        Parser        `toml:"parser"`
	Enrichment    Enrichment    `toml:"enrichment"`
	Library       Library       `toml:"library"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediahub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Shared folders are never created; a missing share is reported by the scanner.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the SQLite media database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "media.db")
}

// LockPath returns the location of the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "mediahubd.lock")
}

// CatalogTimeout returns the connect/read timeout applied to catalog requests.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}

// FailedLookupWindow returns how long a recorded lookup failure suppresses retries.
func (c *Config) FailedLookupWindow() time.Duration {
	return time.Duration(c.Enrichment.FailedLookupWindowHours) * time.Hour
}

// CatalogActive reports whether remote catalog lookups may run at all.
func (c *Config) CatalogActive() bool {
	return c.Network.ExternalNetwork && c.Catalog.LookupsEnabled
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
