package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options
type Config struct {
	BaseURL         string `yaml:"base_url"         env:"LIBSEARCH_BASE_URL, overwrite"`
	StateDB         string `yaml:"state_db"         env:"LIBSEARCH_STATE_DB, overwrite"`
	DefaultLocation string `yaml:"default_location" env:"LIBSEARCH_DEFAULT_LOCATION, overwrite"`
	Log             Log    `yaml:"log"`
}

// Log configures pkg/logger.
type Log struct {
	Level  string `yaml:"level"  env:"LIBSEARCH_LOG_LEVEL, overwrite"`
	Pretty bool   `yaml:"pretty" env:"LIBSEARCH_LOG_PRETTY, overwrite"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:5000",
		StateDB: defaultStateDB(),
		Log:     Log{Level: "warn"},
	}
}

func defaultStateDB() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "libsearch", "state.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "libsearch", "state.db")
}

func configPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "libsearch", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "libsearch", "config.yaml")
}

// Load reads the config file at path (the default location when empty),
// falling back to defaults when it is missing, then applies environment
// overrides. A malformed file is an error.
func Load(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		path = configPath()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	return cfg, nil
}

// Path returns the default config file path (for help text)
func Path() string {
	return configPath()
}
