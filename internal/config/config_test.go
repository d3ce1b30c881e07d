package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Binary.Path != "rg" {
		t.Fatalf("binary path = %q", cfg.Binary.Path)
	}
	if cfg.Search.ProgressInterval() != 500*time.Millisecond {
		t.Fatalf("progress interval = %v", cfg.Search.ProgressInterval())
	}
	if cfg.Search.GracePeriod() != 5*time.Second {
		t.Fatalf("grace period = %v", cfg.Search.GracePeriod())
	}
	if cfg.Search.BaseTimeout() != 0 {
		t.Fatal("base timeout should default to disabled")
	}
	if !cfg.Search.JSONOutputOrDefault() {
		t.Fatal("json output should default to true")
	}
	if !cfg.History.EnabledOrDefault() {
		t.Fatal("history should default to enabled")
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
binary:
  path: /usr/local/bin/rg
search:
  progress_interval_ms: 250
  json_output: false
history:
  database_path: ./data/history.db
server:
  port: 9999
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug || cfg.Binary.Path != "/usr/local/bin/rg" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Search.ProgressInterval() != 250*time.Millisecond {
		t.Fatalf("progress interval = %v", cfg.Search.ProgressInterval())
	}
	if cfg.Search.JSONOutputOrDefault() {
		t.Fatal("explicit false was ignored")
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	// "./" paths are resolved relative to the config directory.
	want := filepath.Join(dir, "data/history.db")
	if cfg.History.DatabasePath != want {
		t.Fatalf("database path = %q, want %q", cfg.History.DatabasePath, want)
	}
	// Unset fields still get defaults.
	if cfg.Search.BufferItems != 50 {
		t.Fatalf("buffer items = %d", cfg.Search.BufferItems)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing config must error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Server.Port = 7777
	if err := Save(path, &cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 7777 {
		t.Fatalf("port = %d", loaded.Server.Port)
	}
}
