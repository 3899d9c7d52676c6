package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "predict_queue", cfg.Jobx.Queue)
	assert.Equal(t, 24*time.Hour, cfg.Jobx.JobTTL)
	assert.Equal(t, 2, cfg.Jobx.Concurrency)
	assert.Equal(t, time.Second, cfg.Jobx.DequeueTimeout)
	assert.Equal(t, 10*time.Second, cfg.Jobx.PredictTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, BrokerModeRedis, cfg.Broker.Mode)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUEUE_NAME", "iris")
	t.Setenv("JOB_TTL", "3600")
	t.Setenv("BRPOP_TIMEOUT", "2s")
	t.Setenv("NUM_WORKERS", "4")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("PORT", "9000")
	t.Setenv("APP_VERSION", "2.1.0")
	t.Setenv("CORS_ORIGINS", "https://example.com")
	t.Setenv("JOBX_MONITOR_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "iris", cfg.Jobx.Queue)
	assert.Equal(t, time.Hour, cfg.Jobx.JobTTL)
	assert.Equal(t, 2*time.Second, cfg.Jobx.DequeueTimeout)
	assert.Equal(t, 4, cfg.Jobx.Concurrency)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr())
	assert.Equal(t, ":9000", cfg.Server.Addr())
	assert.Equal(t, "2.1.0", cfg.App.Version)
	assert.Equal(t, "https://example.com", cfg.Server.CORSOrigins)
	assert.Equal(t, "@every 30s", cfg.Jobx.MonitorSchedule)
	assert.True(t, cfg.Jobx.MonitorEnabled())

	t.Setenv("JOBX_MONITOR_SCHEDULE", "off")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.Jobx.MonitorEnabled())
}

func TestLoad_YAMLFileUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inferq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jobx:
  queue: from_file
  predict_timeout: 5s
redis:
  host: file-host
archive:
  enabled: true
  host: db
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REDIS_HOST", "env-host")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from_file", cfg.Jobx.Queue)
	assert.Equal(t, 5*time.Second, cfg.Jobx.PredictTimeout)
	assert.Equal(t, "env-host", cfg.Redis.Host)
	assert.True(t, cfg.Archive.Enabled)
	assert.Contains(t, cfg.Archive.DSN(), "host=db")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty queue", func(c *Config) { c.Jobx.Queue = "" }},
		{"zero ttl", func(c *Config) { c.Jobx.JobTTL = 0 }},
		{"no workers", func(c *Config) { c.Jobx.Concurrency = 0 }},
		{"sub-second dequeue", func(c *Config) { c.Jobx.DequeueTimeout = 100 * time.Millisecond }},
		{"bad backoff", func(c *Config) { c.Jobx.MaxErrorBackoff = time.Millisecond }},
		{"zero backoff", func(c *Config) { c.Jobx.ErrorBackoff = 0 }},
		{"negative backoff", func(c *Config) { c.Jobx.ErrorBackoff = -time.Second }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad broker mode", func(c *Config) { c.Broker.Mode = "kafka" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Mode = StorageModeS3 }},
		{"unknown storage", func(c *Config) { c.Storage.Mode = "ftp" }},
		{"archive without host", func(c *Config) { c.Archive.Enabled = true; c.Archive.Host = "" }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
