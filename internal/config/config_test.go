package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.URI)
	assert.Equal(t, "quill", cfg.Storage.Database)
	assert.Equal(t, "content_snapshots", cfg.Storage.Collection)
	assert.Equal(t, "nats://localhost:4222", cfg.Events.URL)
	assert.Equal(t, 16, cfg.Dispatch.NumWorkers)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
storage:
  database: quill_test
cache:
  enabled: true
  addr: redis:6379
  ttl: 1m
`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "quill_test", cfg.Storage.Database)
	// Untouched keys keep defaults.
	assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.URI)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoadLocalFileOverridesBase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`
events:
  url: nats://base:4222
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.yml"), []byte(`
events:
  url: nats://local:4222
`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "nats://local:4222", cfg.Events.URL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUILL_MONGO_URI", "mongodb://env:27017")
	t.Setenv("QUILL_NATS_URL", "nats://env:4222")
	t.Setenv("QUILL_DISPATCH_WORKERS", "4")
	t.Setenv("QUILL_CACHE_ENABLED", "true")
	t.Setenv("QUILL_REDIS_ADDR", "env:6379")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "mongodb://env:27017", cfg.Storage.URI)
	assert.Equal(t, "nats://env:4222", cfg.Events.URL)
	assert.Equal(t, 4, cfg.Dispatch.NumWorkers)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "env:6379", cfg.Cache.Addr)
}

func TestLoadInvalidEnvValuesKept(t *testing.T) {
	t.Setenv("QUILL_DISPATCH_WORKERS", "lots")
	t.Setenv("QUILL_CACHE_ENABLED", "maybe")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Dispatch.NumWorkers)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("not: [valid"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing storage uri",
			mutate:  func(c *Config) { c.Storage.URI = "" },
			wantErr: "storage.uri",
		},
		{
			name:    "missing events stream",
			mutate:  func(c *Config) { c.Events.Stream = "" },
			wantErr: "events.stream",
		},
		{
			name: "cache enabled without addr",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Addr = ""
			},
			wantErr: "cache.addr",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Dispatch.NumWorkers = 0 },
			wantErr: "num_workers",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestLoggingApplyDefaults(t *testing.T) {
	c := LoggingConfig{}
	c.ApplyDefaults()

	assert.Equal(t, "info", c.Level)
	assert.Equal(t, "text", c.Format)
	assert.Equal(t, "logs", c.Dir)
	assert.True(t, c.Console.Enabled)
	assert.True(t, c.File.Enabled)
	assert.Equal(t, "info", c.Console.Level)
	assert.Equal(t, 100, c.Rotation.MaxSize)
}

func TestLoggingApplyDefaultsKeepsExplicitDisable(t *testing.T) {
	c := LoggingConfig{File: FileConfig{Enabled: false, Level: "warn"}}
	c.ApplyDefaults()
	assert.False(t, c.File.Enabled)
	assert.Equal(t, "warn", c.File.Level)
}
