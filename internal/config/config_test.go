package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Gallery.MaxRecords != 100 {
		t.Errorf("gallery max_records = %d, want 100", cfg.Gallery.MaxRecords)
	}
	if cfg.Gallery.GetQueryTimeout() != 10*time.Second {
		t.Errorf("query timeout = %v, want 10s", cfg.Gallery.GetQueryTimeout())
	}
	if !cfg.RateLimit.Enabled {
		t.Error("rate limiting disabled by default")
	}
	if cfg.Importer.DailyRunTime != "02:00" {
		t.Errorf("daily run time = %q, want 02:00", cfg.Importer.DailyRunTime)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	yaml := `
database:
  type: postgres
  postgres:
    host: db.internal
    port: 5433
gallery:
  query_timeout_seconds: 3
  max_records: 50
importer:
  runner_user_id: runner-uuid
  daily_run_enabled: true
rate_limit:
  enabled: false
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Database.Type != "postgres" {
		t.Errorf("database type = %q, want postgres", cfg.Database.Type)
	}
	if cfg.Database.Postgres.Port != 5433 {
		t.Errorf("postgres port = %d, want 5433", cfg.Database.Postgres.Port)
	}
	if cfg.Gallery.GetQueryTimeout() != 3*time.Second {
		t.Errorf("query timeout = %v, want 3s", cfg.Gallery.GetQueryTimeout())
	}
	if cfg.Gallery.MaxRecords != 50 {
		t.Errorf("max_records = %d, want 50", cfg.Gallery.MaxRecords)
	}
	if cfg.Importer.RunnerUserID != "runner-uuid" {
		t.Errorf("runner_user_id = %q", cfg.Importer.RunnerUserID)
	}
	if cfg.RateLimit.Enabled {
		t.Error("rate_limit.enabled was not overridden")
	}

	// Untouched sections keep their defaults
	if cfg.Importer.MaxRetries != 3 {
		t.Errorf("max_retries = %d, want default 3", cfg.Importer.MaxRetries)
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() accepted malformed YAML")
	}
}
