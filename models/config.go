// Package models defines the records, status categories and runtime configuration
// shared by the statistics engine and its CLI.
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the dashboard engine.
// Values come from CLI flags, optionally overlaid by a YAML file.
type Config struct {
	DBPath           string        `yaml:"db_path"`
	Listen           string        `yaml:"listen"`
	SessionWindow    time.Duration `yaml:"session_window"`
	DiagnosticWindow time.Duration `yaml:"diagnostic_window"`
	StoreTimeout     time.Duration `yaml:"store_timeout"`
	MetricsTimeout   time.Duration `yaml:"metrics_timeout"`
	SignalTimeout    time.Duration `yaml:"signal_timeout"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"`
	WorkerPattern    string        `yaml:"worker_pattern"`
	// RefreshURL is the trigger endpoint of a running dashboard, used by
	// commands that signal it from another process.
	RefreshURL string `yaml:"refresh_url"`
}

// DefaultConfig returns the values used when neither a flag nor the config file sets them.
func DefaultConfig() Config {
	return Config{
		DBPath:           "workflows.db",
		Listen:           ":8080",
		SessionWindow:    5 * time.Minute,
		DiagnosticWindow: 10 * time.Minute,
		StoreTimeout:     10 * time.Second,
		MetricsTimeout:   5 * time.Second,
		SignalTimeout:    2 * time.Second,
		RefreshInterval:  30 * time.Second,
		WorkerPattern:    "scraper",
		RefreshURL:       "http://localhost:8080/api/trigger-update",
	}
}

// LoadConfig reads a YAML config file on top of base. Keys missing from the
// file keep the value from base.
func LoadConfig(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.SessionWindow <= 0 {
		return fmt.Errorf("session_window must be positive, got %s", c.SessionWindow)
	}
	if c.DiagnosticWindow <= 0 {
		return fmt.Errorf("diagnostic_window must be positive, got %s", c.DiagnosticWindow)
	}
	if c.StoreTimeout <= 0 || c.MetricsTimeout <= 0 || c.SignalTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	return nil
}
