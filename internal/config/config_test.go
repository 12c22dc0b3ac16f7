package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, int64(50*1024*1024), cfg.HTTP.MaxUploadBytes)
	assert.Equal(t, "uploads", cfg.Storage.UploadsDir)
	assert.Equal(t, "output", cfg.Storage.OutputDir)
	assert.Empty(t, cfg.Storage.JobDBPath)
	assert.Equal(t, 3600, cfg.Storage.JobTTL)
	assert.Equal(t, "@every 10m", cfg.Storage.SweepCron)
	assert.Equal(t, 3, cfg.Workers.Count)
	assert.Equal(t, "info", cfg.System.LogLevel)
	assert.Empty(t, cfg.System.LogFile)
}

func TestNewFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("UPLOADS_DIR", "/tmp/in")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("JOB_DB_PATH", "/tmp/jobs.db")
	t.Setenv("JOB_TTL", "120")
	t.Setenv("SWEEP_CRON", "@every 1m")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, int64(1048576), cfg.HTTP.MaxUploadBytes)
	assert.Equal(t, "/tmp/in", cfg.Storage.UploadsDir)
	assert.Equal(t, "/tmp/out", cfg.Storage.OutputDir)
	assert.Equal(t, "/tmp/jobs.db", cfg.Storage.JobDBPath)
	assert.Equal(t, 120, cfg.Storage.JobTTL)
	assert.Equal(t, 2*time.Minute, cfg.Storage.TTL())
	assert.Equal(t, "@every 1m", cfg.Storage.SweepCron)
	assert.Equal(t, 8, cfg.Workers.Count)
	assert.Equal(t, "debug", cfg.System.LogLevel)
}

func TestNewFromEnv_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("JOB_TTL", "not-a-number")
	t.Setenv("WORKER_COUNT", "3.5")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 3600, cfg.Storage.JobTTL)
	assert.Equal(t, 3, cfg.Workers.Count)
}

func TestNewFromEnv_Options(t *testing.T) {
	cfg, err := NewFromEnv(func(c *Config) {
		c.Workers.Count = 1
		c.Storage.OutputDir = "/tmp/artifacts"
	})
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Workers.Count)
	assert.Equal(t, "/tmp/artifacts", cfg.Storage.OutputDir)
}

func TestNewFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr string
	}{
		{
			name:    "empty addr",
			opt:     func(c *Config) { c.HTTP.Addr = "" },
			wantErr: "HTTP_ADDR",
		},
		{
			name:    "empty uploads dir",
			opt:     func(c *Config) { c.Storage.UploadsDir = "" },
			wantErr: "UPLOADS_DIR",
		},
		{
			name:    "empty output dir",
			opt:     func(c *Config) { c.Storage.OutputDir = "" },
			wantErr: "OUTPUT_DIR",
		},
		{
			name:    "zero ttl",
			opt:     func(c *Config) { c.Storage.JobTTL = 0 },
			wantErr: "JOB_TTL",
		},
		{
			name:    "negative workers",
			opt:     func(c *Config) { c.Workers.Count = -1 },
			wantErr: "WORKER_COUNT",
		},
		{
			name:    "zero upload cap",
			opt:     func(c *Config) { c.HTTP.MaxUploadBytes = 0 },
			wantErr: "MAX_UPLOAD_BYTES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromEnv(tt.opt)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
