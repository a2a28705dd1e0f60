// Package config loads the storage configuration: which backend to
// open (as a store URI) and how the store should log. The main file is
// YAML; operational tuning can additionally come from an .ini file,
// section by section.
package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/chainforge/chainstore/logx"
)

// StoreConfig selects and parameterizes the storage backend.
type StoreConfig struct {
	// URI is the backend descriptor, e.g. "memory:" for the volatile
	// store or "leveldb:///var/data/chain" for a durable one.
	URI string `yaml:"uri"`
}

// LogConfig tunes the store's log output.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config is the top-level storage configuration.
type Config struct {
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Store.URI == "" {
		return fmt.Errorf("store uri cannot be empty")
	}
	return nil
}

// Apply pushes the log settings into logx. Zero values keep the
// defaults.
func (c *Config) Apply() {
	if c.Log.File != "" {
		logx.SetOutput(c.Log.File, c.Log.MaxSizeMB, c.Log.MaxAgeDays)
	}
}

// Load reads and parses the YAML configuration file.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// storeOverrides mirrors the [store] section of the overrides file.
type storeOverrides struct {
	URI string `ini:"uri"`
}

// logOverrides mirrors the [log] section of the overrides file.
type logOverrides struct {
	File       string `ini:"file"`
	MaxSizeMB  int    `ini:"max_size_mb"`
	MaxAgeDays int    `ini:"max_age_days"`
}

// ApplyOverrides merges settings from an .ini file on top of cfg.
// Empty values leave the YAML settings in place.
func ApplyOverrides(cfg *Config, path string) error {
	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load overrides %s: %w", path, err)
	}

	var so storeOverrides
	if err := file.Section("store").MapTo(&so); err != nil {
		return err
	}
	if so.URI != "" {
		cfg.Store.URI = so.URI
	}

	var lo logOverrides
	if err := file.Section("log").MapTo(&lo); err != nil {
		return err
	}
	if lo.File != "" {
		cfg.Log.File = lo.File
	}
	if lo.MaxSizeMB > 0 {
		cfg.Log.MaxSizeMB = lo.MaxSizeMB
	}
	if lo.MaxAgeDays > 0 {
		cfg.Log.MaxAgeDays = lo.MaxAgeDays
	}
	return cfg.Validate()
}
