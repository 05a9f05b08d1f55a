package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const appDirName = "trollr"

type Config struct {
	DBPath          string
	MigrationsDir   string
	UserDisplayName string
	WorkMinutes     int
	BreakMinutes    int
}

type fileConfig struct {
	DBPath          string `yaml:"db_path"`
	MigrationsDir   string `yaml:"migrations_dir"`
	UserDisplayName string `yaml:"user_display_name"`
	WorkMinutes     int    `yaml:"work_minutes"`
	BreakMinutes    int    `yaml:"break_minutes"`
}

// Load builds the configuration from environment variables, overlaid by
// the optional YAML file in the user's config directory. File values win
// over defaults; environment variables win over both.
func Load() (Config, error) {
	cfg := Config{
		DBPath:          "./data/trollr.db",
		MigrationsDir:   "./migrations",
		UserDisplayName: "you",
		WorkMinutes:     25,
		BreakMinutes:    5,
	}

	if err := applyConfigFile(&cfg); err != nil {
		return cfg, err
	}

	cfg.DBPath = getEnv("TROLLR_DB_PATH", cfg.DBPath)
	cfg.MigrationsDir = getEnv("TROLLR_MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.UserDisplayName = getEnv("TROLLR_USER_NAME", cfg.UserDisplayName)
	cfg.WorkMinutes = getEnvInt("TROLLR_WORK_MINUTES", cfg.WorkMinutes)
	cfg.BreakMinutes = getEnvInt("TROLLR_BREAK_MINUTES", cfg.BreakMinutes)

	return cfg, nil
}

func applyConfigFile(cfg *Config) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}

	path := filepath.Join(configDir, appDirName, "config.yaml")
	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fileData fileConfig
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if fileData.DBPath != "" {
		cfg.DBPath = fileData.DBPath
	}
	if fileData.MigrationsDir != "" {
		cfg.MigrationsDir = fileData.MigrationsDir
	}
	if fileData.UserDisplayName != "" {
		cfg.UserDisplayName = fileData.UserDisplayName
	}
	if fileData.WorkMinutes > 0 {
		cfg.WorkMinutes = fileData.WorkMinutes
	}
	if fileData.BreakMinutes > 0 {
		cfg.BreakMinutes = fileData.BreakMinutes
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
