// Package config provides configuration loading and structs for ripsearch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Binary  BinaryConfig  `yaml:"binary"`
	Search  SearchConfig  `yaml:"search"`
	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
	Watch   WatchConfig   `yaml:"watch"`
}

// BinaryConfig identifies the external search tool.
type BinaryConfig struct {
	// Path is an executable name looked up on PATH or an absolute path.
	Path string `yaml:"path"`
}

// SearchConfig tunes the search pipeline.
type SearchConfig struct {
	DefaultMaxResults  int   `yaml:"default_max_results"`
	ProgressIntervalMS int   `yaml:"progress_interval_ms"`
	BufferItems        int   `yaml:"buffer_items"`
	BufferBytes        int   `yaml:"buffer_bytes"`
	GracePeriodS       int   `yaml:"grace_period_s"`
	BaseTimeoutS       int   `yaml:"base_timeout_s"`
	MaxTimeoutS        int   `yaml:"max_timeout_s"`
	JSONOutput         *bool `yaml:"json_output"`
}

// ProgressInterval returns the progress debounce as a duration.
func (s *SearchConfig) ProgressInterval() time.Duration {
	return time.Duration(s.ProgressIntervalMS) * time.Millisecond
}

// GracePeriod returns the cancel escalation delay as a duration.
func (s *SearchConfig) GracePeriod() time.Duration {
	return time.Duration(s.GracePeriodS) * time.Second
}

// BaseTimeout returns the unattended timeout base; zero disables it.
func (s *SearchConfig) BaseTimeout() time.Duration {
	return time.Duration(s.BaseTimeoutS) * time.Second
}

// MaxTimeout returns the unattended timeout cap.
func (s *SearchConfig) MaxTimeout() time.Duration {
	return time.Duration(s.MaxTimeoutS) * time.Second
}

// JSONOutputOrDefault returns whether structured output is requested;
// defaults to true when unset.
func (s *SearchConfig) JSONOutputOrDefault() bool {
	if s.JSONOutput != nil {
		return *s.JSONOutput
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// HistoryConfig holds the search-history database settings.
type HistoryConfig struct {
	Enabled      *bool  `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// EnabledOrDefault returns whether history is recorded; defaults to true.
func (h *HistoryConfig) EnabledOrDefault() bool {
	if h.Enabled != nil {
		return *h.Enabled
	}
	return true
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// Debounce returns the watch re-run debounce as a duration.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.History.DatabasePath = expandPath(cfg.History.DatabasePath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
