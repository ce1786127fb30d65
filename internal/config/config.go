// Package config loads simulation settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings.
type Config struct {
	Seed        int64  `env:"IMPACTSIM_SEED" envDefault:"0"`
	DBPath      string `env:"IMPACTSIM_DB_PATH" envDefault:"impactsim.db"`
	ListenAddr  string `env:"IMPACTSIM_LISTEN_ADDR" envDefault:":8080"`
	Days        int    `env:"IMPACTSIM_DAYS" envDefault:"365"`
	Settlements int    `env:"IMPACTSIM_SETTLEMENTS" envDefault:"5"`

	MetricsEnabled bool   `env:"IMPACTSIM_METRICS_ENABLED" envDefault:"true"`
	MetricsNS      string `env:"IMPACTSIM_METRICS_NAMESPACE" envDefault:"impactsim"`

	LogLevel string `env:"IMPACTSIM_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Days < 1 {
		return Config{}, fmt.Errorf("IMPACTSIM_DAYS must be >= 1, got %d", cfg.Days)
	}
	if cfg.Settlements < 1 {
		return Config{}, fmt.Errorf("IMPACTSIM_SETTLEMENTS must be >= 1, got %d", cfg.Settlements)
	}
	return cfg, nil
}
