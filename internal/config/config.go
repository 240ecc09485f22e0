// Package config loads and persists streamplot settings. Values come
// from built-in defaults, then the YAML config file, then environment
// variables, with later layers winning. Command line flags sit on top
// of all of this and are merged by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all streamplot configuration.
type Config struct {
	// Input defaults. Flags override these per run.
	Input InputConfig `yaml:"input"`

	// UI appearance and behavior
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig configures where data comes from and how it is read.
type InputConfig struct {
	// Command run through the shell once per pass. Empty means read
	// stdin.
	Command string `yaml:"command"`

	// Column selectors, a title or a 0-based index.
	XColumn     string `yaml:"x_column"`
	EpochColumn string `yaml:"epoch_column"`

	// Refresh interval for snapshot mode, e.g. 2s, 500ms. 0s disables.
	Refresh string `yaml:"refresh"`

	// Watch names a file whose changes schedule a new pass.
	Watch string `yaml:"watch"`
}

// UIConfig configures the chart view.
type UIConfig struct {
	Theme   string `yaml:"theme"`   // dark, light
	History int    `yaml:"history"` // datasets kept for epoch navigation
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Refresh: "0s",
		},
		UI: UIConfig{
			Theme:   "dark",
			History: 64,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the user-level config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "streamplot", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file is not an
// error, it just yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STREAMPLOT_COMMAND"); v != "" {
		c.Input.Command = v
	}
	if v := os.Getenv("STREAMPLOT_X"); v != "" {
		c.Input.XColumn = v
	}
	if v := os.Getenv("STREAMPLOT_EPOCH"); v != "" {
		c.Input.EpochColumn = v
	}
	if v := os.Getenv("STREAMPLOT_REFRESH"); v != "" {
		c.Input.Refresh = v
	}
	if v := os.Getenv("STREAMPLOT_WATCH"); v != "" {
		c.Input.Watch = v
	}
	if v := os.Getenv("STREAMPLOT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("STREAMPLOT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STREAMPLOT_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// GetRefresh returns the refresh interval as a duration. Anything
// unparseable reads as disabled.
func (c *Config) GetRefresh() time.Duration {
	d, err := time.ParseDuration(c.Input.Refresh)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
