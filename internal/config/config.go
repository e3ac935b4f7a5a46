// Package config handles configuration loading, validation, and management for kderelay.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete relay configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// DBus configuration for reaching the KDE Connect daemon.
	DBus DBusConfig `toml:"dbus" json:"dbus" yaml:"dbus"`

	// Relay configuration for the tick loop.
	Relay RelayConfig `toml:"relay" json:"relay" yaml:"relay"`

	// Input configuration for key capture.
	Input InputConfig `toml:"input" json:"input" yaml:"input"`

	// Store configuration for relay history.
	Store StoreConfig `toml:"store" json:"store" yaml:"store"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// DBusConfig holds D-Bus transport configuration.
type DBusConfig struct {
	// Address is a D-Bus address. Empty means the session bus.
	Address string `toml:"address" json:"address" yaml:"address"`

	// Service is the KDE Connect daemon's bus name.
	Service string `toml:"service" json:"service" yaml:"service"`

	// CallTimeoutMs bounds every remote call.
	CallTimeoutMs int `toml:"call_timeout_ms" json:"call_timeout_ms" yaml:"call_timeout_ms"`
}

// RelayConfig holds relay loop configuration.
type RelayConfig struct {
	// TickIntervalMs is the tick period of timer-driven front ends.
	TickIntervalMs int `toml:"tick_interval_ms" json:"tick_interval_ms" yaml:"tick_interval_ms"`

	// OnlyPaired lists paired devices only.
	OnlyPaired bool `toml:"only_paired" json:"only_paired" yaml:"only_paired"`

	// OnlyReachable lists reachable devices only.
	OnlyReachable bool `toml:"only_reachable" json:"only_reachable" yaml:"only_reachable"`

	// RequirePlugin treats devices without the remote keyboard plugin as not ready.
	RequirePlugin bool `toml:"require_plugin" json:"require_plugin" yaml:"require_plugin"`
}

// InputConfig holds key capture configuration.
type InputConfig struct {
	// ASCIIOnly drops typed characters outside ASCII.
	ASCIIOnly bool `toml:"ascii_only" json:"ascii_only" yaml:"ascii_only"`

	// CaptureWhenUnavailable queues keys even while no device is ready.
	CaptureWhenUnavailable bool `toml:"capture_when_unavailable" json:"capture_when_unavailable" yaml:"capture_when_unavailable"`
}

// StoreConfig holds relay history configuration.
type StoreConfig struct {
	// Enabled turns the history database on.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the SQLite database path.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	Format     string `toml:"format" json:"format" yaml:"format"`
	Output     string `toml:"output" json:"output" yaml:"output"`
	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int64  `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `toml:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		DBus: DBusConfig{
			Address:       "",
			Service:       "org.kde.kdeconnect",
			CallTimeoutMs: 5000,
		},
		Relay: RelayConfig{
			TickIntervalMs: 50,
			OnlyPaired:     true,
			OnlyReachable:  true,
			RequirePlugin:  false,
		},
		Input: InputConfig{
			ASCIIOnly:              true,
			CaptureWhenUnavailable: false,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(PlatformDataDir(), "history.db"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   filepath.Join(PlatformLogDir(), "kderelay.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// ConfigPath returns the default configuration file path.
// KDERELAY_CONFIG overrides it.
func ConfigPath() string {
	if v := os.Getenv("KDERELAY_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	cfg.ApplyEnvOverrides()

	return cfg, nil
}

// SaveConfig writes cfg to path in the format implied by its extension.
func SaveConfig(cfg *Config, path string) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	var (
		data []byte
		err  error
	)
	switch filepath.Ext(path) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories the configured files live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Logging.FilePath),
	}
	if c.Store.Enabled {
		dirs = append(dirs, filepath.Dir(c.Store.Path))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with KDERELAY_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// D-Bus overrides
	if v := os.Getenv("KDERELAY_DBUS_ADDRESS"); v != "" {
		c.DBus.Address = v
	}
	if v := os.Getenv("KDERELAY_DBUS_SERVICE"); v != "" {
		c.DBus.Service = v
	}
	if v := os.Getenv("KDERELAY_CALL_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DBus.CallTimeoutMs = n
		}
	}

	// Relay overrides
	if v := os.Getenv("KDERELAY_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Relay.TickIntervalMs = n
		}
	}

	// Store overrides
	if v := os.Getenv("KDERELAY_STORE_PATH"); v != "" {
		c.Store.Path = v
	}

	// Logging overrides
	if v := os.Getenv("KDERELAY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KDERELAY_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Version: c.Version,
		DBus:    c.DBus,
		Relay:   c.Relay,
		Input:   c.Input,
		Store:   c.Store,
		Logging: c.Logging,
	}
}

// CallTimeout returns the per-call D-Bus timeout.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.DBus.CallTimeoutMs) * time.Millisecond
}

// TickInterval returns the relay tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Relay.TickIntervalMs) * time.Millisecond
}

// LockPath returns the file interactive sessions lock, next to the history
// database.
func (c *Config) LockPath() string {
	return filepath.Join(filepath.Dir(c.Store.Path), "session.lock")
}
