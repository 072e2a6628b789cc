// Package config loads the service configuration. Order of precedence:
// defaults -> config.yml -> config.local.yml -> environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Events   EventsConfig   `yaml:"events"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Rules    RulesConfig    `yaml:"rules"`
}

// StorageConfig points at the content snapshot store.
type StorageConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// CacheConfig configures the snapshot cache. Disabled means snapshots are
// always loaded from storage.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`
}

// EventsConfig configures the event transport.
type EventsConfig struct {
	URL          string `yaml:"url"`
	Stream       string `yaml:"stream"`
	ConsumerName string `yaml:"consumer_name"`
}

// DispatchConfig configures the dispatch service.
type DispatchConfig struct {
	NumWorkers     int    `yaml:"num_workers"`
	EnrichedStream string `yaml:"enriched_stream"`
}

// RulesConfig points at the rule definitions.
type RulesConfig struct {
	File string `yaml:"file"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Logging: DefaultLoggingConfig(),
		Storage: StorageConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "quill",
			Collection: "content_snapshots",
		},
		Cache: CacheConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     5 * time.Minute,
		},
		Events: EventsConfig{
			URL:          "nats://localhost:4222",
			Stream:       "CONTENTS",
			ConsumerName: "RuleDispatcher",
		},
		Dispatch: DispatchConfig{
			NumWorkers:     16,
			EnrichedStream: "ENRICHED",
		},
		Rules: RulesConfig{
			File: "rules.yaml",
		},
	}
}

// Load reads the configuration from configDir. Missing files are skipped;
// malformed files are an error.
func Load(configDir string) (*Config, error) {
	cfg := DefaultConfig()

	for _, name := range []string{"config.yml", "config.local.yml"} {
		if err := loadFile(filepath.Join(configDir, name), cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	cfg.Logging.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	return nil
}

// applyEnvOverrides applies QUILL_* environment variables on top of the
// file configuration.
func (c *Config) applyEnvOverrides() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("QUILL_MONGO_URI", &c.Storage.URI)
	setString("QUILL_MONGO_DATABASE", &c.Storage.Database)
	setString("QUILL_REDIS_ADDR", &c.Cache.Addr)
	setString("QUILL_NATS_URL", &c.Events.URL)
	setString("QUILL_RULES_FILE", &c.Rules.File)
	setString("QUILL_LOG_LEVEL", &c.Logging.Level)

	if v := os.Getenv("QUILL_CACHE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = enabled
		} else {
			slog.Warn("Invalid QUILL_CACHE_ENABLED, keeping configured value", "value", v)
		}
	}

	if v := os.Getenv("QUILL_DISPATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Dispatch.NumWorkers = n
		} else {
			slog.Warn("Invalid QUILL_DISPATCH_WORKERS, keeping configured value", "value", v)
		}
	}
}

// Validate checks the configuration for values that would fail later in a
// less obvious way.
func (c *Config) Validate() error {
	if c.Storage.URI == "" {
		return fmt.Errorf("storage.uri is required")
	}
	if c.Storage.Database == "" {
		return fmt.Errorf("storage.database is required")
	}
	if c.Storage.Collection == "" {
		return fmt.Errorf("storage.collection is required")
	}
	if c.Events.URL == "" {
		return fmt.Errorf("events.url is required")
	}
	if c.Events.Stream == "" {
		return fmt.Errorf("events.stream is required")
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache.addr is required when the cache is enabled")
	}
	if c.Dispatch.NumWorkers <= 0 {
		return fmt.Errorf("dispatch.num_workers must be positive")
	}
	return c.Logging.Validate()
}
