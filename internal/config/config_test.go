package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "./data/trollr.db" || cfg.MigrationsDir != "./migrations" {
		t.Fatalf("unexpected paths: %+v", cfg)
	}
	if cfg.WorkMinutes != 25 || cfg.BreakMinutes != 5 {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.UserDisplayName != "you" {
		t.Fatalf("unexpected display name: %q", cfg.UserDisplayName)
	}
}

func TestLoadConfigFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := []byte("db_path: /tmp/custom.db\nwork_minutes: 50\nuser_display_name: sam\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Fatalf("file db_path ignored: %q", cfg.DBPath)
	}
	if cfg.WorkMinutes != 50 {
		t.Fatalf("file work_minutes ignored: %d", cfg.WorkMinutes)
	}
	if cfg.UserDisplayName != "sam" {
		t.Fatalf("file display name ignored: %q", cfg.UserDisplayName)
	}
	// Unset file keys keep their defaults.
	if cfg.BreakMinutes != 5 {
		t.Fatalf("unexpected break minutes: %d", cfg.BreakMinutes)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("work_minutes: 50\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TROLLR_WORK_MINUTES", "40")
	t.Setenv("TROLLR_DB_PATH", "/tmp/env.db")
	t.Setenv("TROLLR_BREAK_MINUTES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkMinutes != 40 {
		t.Fatalf("env must win over file, got %d", cfg.WorkMinutes)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("env db_path ignored: %q", cfg.DBPath)
	}
	if cfg.BreakMinutes != 5 {
		t.Fatalf("invalid env value must fall back, got %d", cfg.BreakMinutes)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("work_minutes: [\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
