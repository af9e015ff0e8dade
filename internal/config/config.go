// ============================================================================
// Config — scheduler demo configuration
// ============================================================================
//
// Package: internal/config
// File: config.go
// Purpose: Load the small YAML document that configures cmd/taskgraphdemo
//
// Mirrors the Config-struct-plus-yaml.v3-loader convention from the
// teacher's internal/controller/controller.go and cmd/demo/main.go, shrunk
// to the four fields a dependency-aware pool demo actually needs (worker
// count, metrics enabled flag, metrics address, log level): no
// WAL/snapshot fields, since this design has no persistence (Non-goal).
//
// ============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML document shape.
type Config struct {
	Pool struct {
		WorkerCount int `yaml:"worker_count"`
	} `yaml:"pool"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration cmd/taskgraphdemo falls back to when no
// file is given.
func Default() Config {
	var c Config
	c.Pool.WorkerCount = 4
	c.Metrics.Enabled = false
	c.Metrics.Addr = ":9090"
	c.Log.Level = "info"
	return c
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
