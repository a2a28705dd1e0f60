package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yml", `
store:
  uri: leveldb:///var/data/chain
log:
  file: /var/log/chainstore.log
  max_size_mb: 32
  max_age_days: 7
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.URI != "leveldb:///var/data/chain" {
		t.Errorf("store uri: %q", cfg.Store.URI)
	}
	if cfg.Log.File != "/var/log/chainstore.log" || cfg.Log.MaxSizeMB != 32 || cfg.Log.MaxAgeDays != 7 {
		t.Errorf("log config: %+v", cfg.Log)
	}
}

func TestLoad_RejectsEmptyURI(t *testing.T) {
	path := writeFile(t, "config.yml", `
log:
  file: /var/log/chainstore.log
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{
		Store: StoreConfig{URI: "memory:"},
		Log:   LogConfig{File: "/var/log/chainstore.log", MaxSizeMB: 32},
	}
	path := writeFile(t, "overrides.ini", `
[store]
uri = bolt:///var/data/chain.db

[log]
max_age_days = 3
`)
	if err := ApplyOverrides(cfg, path); err != nil {
		t.Fatalf("ApplyOverrides failed: %v", err)
	}
	if cfg.Store.URI != "bolt:///var/data/chain.db" {
		t.Errorf("store uri not overridden: %q", cfg.Store.URI)
	}
	if cfg.Log.MaxAgeDays != 3 {
		t.Errorf("max_age_days not overridden: %d", cfg.Log.MaxAgeDays)
	}
	// Untouched sections keep their YAML values.
	if cfg.Log.File != "/var/log/chainstore.log" || cfg.Log.MaxSizeMB != 32 {
		t.Errorf("log config clobbered: %+v", cfg.Log)
	}
}

func TestApplyOverrides_EmptyFileKeepsConfig(t *testing.T) {
	cfg := &Config{Store: StoreConfig{URI: "memory:"}}
	path := writeFile(t, "overrides.ini", "")
	if err := ApplyOverrides(cfg, path); err != nil {
		t.Fatalf("ApplyOverrides failed: %v", err)
	}
	if cfg.Store.URI != "memory:" {
		t.Errorf("store uri changed: %q", cfg.Store.URI)
	}
}
