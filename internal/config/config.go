// Package config provides configuration management for the EchoGenesis
// service. Values come from environment variables, optionally seeded from a
// .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir  string // Base directory for the organism database and backups
	LogLevel string
	Port     int
	DevMode  bool

	// Engine limits. DefaultStage picks the qubit count for newly created
	// organisms unless the caller specifies one.
	DefaultStage int

	// History retention per organism in the metrics store.
	HistoryLimit int

	// Snapshot cron schedule for the background persistence job.
	SnapshotSchedule string

	Backup *BackupConfig
}

// BackupConfig holds S3-compatible backup settings. Backups stay disabled
// unless an endpoint and credentials are configured.
type BackupConfig struct {
	Enabled         bool
	Endpoint        string // S3-compatible endpoint URL
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // cron expression for the backup job
	Retention       int    // number of backups to keep
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists.
	_ = godotenv.Load()

	dataDir := getEnv("ECHO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("ECHO_PORT", 8000),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DefaultStage:     getEnvAsInt("ECHO_DEFAULT_STAGE", 0),
		HistoryLimit:     getEnvAsInt("ECHO_HISTORY_LIMIT", 500),
		SnapshotSchedule: getEnv("ECHO_SNAPSHOT_SCHEDULE", "@every 1m"),
		Backup:           loadBackupConfig(),
	}

	return cfg, nil
}

// loadBackupConfig reads backup settings; missing endpoint or credentials
// leave backups disabled.
func loadBackupConfig() *BackupConfig {
	cfg := &BackupConfig{
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		Bucket:          getEnv("BACKUP_S3_BUCKET", "echogenesis-backups"),
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		Schedule:        getEnv("BACKUP_SCHEDULE", "@daily"),
		Retention:       getEnvAsInt("BACKUP_RETENTION", 7),
	}
	cfg.Enabled = cfg.Endpoint != "" && cfg.AccessKeyID != "" && cfg.SecretAccessKey != ""
	return cfg
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
