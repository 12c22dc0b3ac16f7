package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// HTTP Configuration:
// - HTTP_ADDR: listen address (default: :8000)
// - MAX_UPLOAD_BYTES: upload size cap in bytes (default: 52428800, 50MB)
//
// Storage Configuration:
// - UPLOADS_DIR: directory for temporary input files (default: uploads)
// - OUTPUT_DIR: directory for generated artifacts (default: output)
// - JOB_DB_PATH: SQLite path for the durable job registry; when empty or
//   unopenable the service falls back to the in-memory registry, which
//   has no expiry and is invisible to other processes
// - JOB_TTL: durable registry entry time-to-live in seconds (default: 3600)
// - SWEEP_CRON: cron expression for the expired-entry sweeper (default: @every 10m)
//
// Worker Configuration:
// - WORKER_COUNT: background pipeline workers (default: 3)
//
// System Configuration:
// - LOG_LEVEL: debug, info, warn, error (default: info)
// - LOG_FILE: optional file sink for logs

type Config struct {
	HTTP    HTTPConfig    `json:"http"`
	Storage StorageConfig `json:"storage"`
	Workers WorkerConfig  `json:"workers"`
	System  SystemConfig  `json:"system"`
}

type HTTPConfig struct {
	Addr           string `json:"addr"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
}

type StorageConfig struct {
	UploadsDir string `json:"uploads_dir"`
	OutputDir  string `json:"output_dir"`
	JobDBPath  string `json:"job_db_path"`
	JobTTL     int    `json:"job_ttl"`
	SweepCron  string `json:"sweep_cron"`
}

func (c StorageConfig) TTL() time.Duration {
	return time.Duration(c.JobTTL) * time.Second
}

type WorkerConfig struct {
	Count int `json:"count"`
}

type SystemConfig struct {
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		HTTP: HTTPConfig{
			Addr:           getEnvString("HTTP_ADDR", ":8000"),
			MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 50*1024*1024),
		},
		Storage: StorageConfig{
			UploadsDir: getEnvString("UPLOADS_DIR", "uploads"),
			OutputDir:  getEnvString("OUTPUT_DIR", "output"),
			JobDBPath:  getEnvString("JOB_DB_PATH", ""),
			JobTTL:     getEnvInt("JOB_TTL", 3600),
			SweepCron:  getEnvString("SWEEP_CRON", "@every 10m"),
		},
		Workers: WorkerConfig{
			Count: getEnvInt("WORKER_COUNT", 3),
		},
		System: SystemConfig{
			LogLevel: getEnvString("LOG_LEVEL", "info"),
			LogFile:  getEnvString("LOG_FILE", ""),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.Storage.UploadsDir == "" {
		return fmt.Errorf("UPLOADS_DIR is required")
	}
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.Storage.JobTTL <= 0 {
		return fmt.Errorf("JOB_TTL must be positive, got %d", c.Storage.JobTTL)
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.Workers.Count)
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.HTTP.MaxUploadBytes)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
