package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "impactsim.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.Days != 365 {
		t.Errorf("days = %d, want 365", cfg.Days)
	}
	if !cfg.MetricsEnabled {
		t.Error("metrics should default on")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IMPACTSIM_SEED", "1234")
	t.Setenv("IMPACTSIM_DAYS", "30")
	t.Setenv("IMPACTSIM_METRICS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 1234 {
		t.Errorf("seed = %d, want 1234", cfg.Seed)
	}
	if cfg.Days != 30 {
		t.Errorf("days = %d, want 30", cfg.Days)
	}
	if cfg.MetricsEnabled {
		t.Error("metrics should be disabled")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("IMPACTSIM_DAYS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero days")
	}
}
