// Package config reads sirsim defaults from SIRSIM_* environment variables.
//
// Values loaded here only seed command-line flag defaults; an explicit flag
// always wins.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-provided defaults.
type Config struct {
	DB        string   `env:"SIRSIM_DB"`
	LogLevel  string   `env:"SIRSIM_LOG_LEVEL" envDefault:"info"`
	Lang      string   `env:"SIRSIM_LANG"`
	Workers   int      `env:"SIRSIM_WORKERS"` // 0 means one per CPU
	Output    string   `env:"SIRSIM_OUTPUT" envDefault:"sir-out"`
	Terminals []string `env:"SIRSIM_TERMINALS" envDefault:"png" envSeparator:","`
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects values no command could use.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("SIRSIM_WORKERS must be >= 0, got %d", c.Workers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns LogLevel as a slog level. Empty means info.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("SIRSIM_LOG_LEVEL: %w", err)
	}
	return level, nil
}
