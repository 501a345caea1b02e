package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("Expected error for explicit missing file, got config %+v", cfg)
	}

	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Filters.PersistInterval != 3*time.Second {
		t.Errorf("Expected 3s persist interval, got %v", cfg.Filters.PersistInterval)
	}
	if cfg.UI.PageSize != 20 {
		t.Errorf("Expected page size 20, got %d", cfg.UI.PageSize)
	}
	if filepath.Base(cfg.History.Path) != "history.db" {
		t.Errorf("Expected history.db in config dir, got %s", cfg.History.Path)
	}
}

func TestLoadFrom_File(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `server:
  base_url: https://ca.example.org/ca3s
  request_timeout: 15s
auth:
  mode: password
  user: ra-officer
filters:
  persist_interval: 5s
downloads:
  dir: ` + dir + `
`
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(file)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Server.BaseURL != "https://ca.example.org/ca3s" {
		t.Errorf("Unexpected base url %s", cfg.Server.BaseURL)
	}
	if cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("Unexpected timeout %v", cfg.Server.RequestTimeout)
	}
	if cfg.Filters.PersistInterval != 5*time.Second || cfg.Filters.URLRecomputeInterval != time.Second {
		t.Errorf("Unexpected intervals %+v", cfg.Filters)
	}
	if cfg.Downloads.Dir != dir || cfg.Downloads.Alias != "alias" {
		t.Errorf("Unexpected downloads %+v", cfg.Downloads)
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("LAZYCA_SERVER_BASE_URL", "https://env.example.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.BaseURL != "https://env.example.org" {
		t.Errorf("Expected env override, got %s", cfg.Server.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	cfg := GetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate, got %v", err)
	}

	cfg.Auth.Mode = "kerberos"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown auth mode")
	}

	cfg.Auth.Mode = "password"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for password mode without user")
	}
}
