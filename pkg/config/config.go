// Package config loads syncstored's on-disk YAML configuration, the
// same way cmd/warren's apply command parses its resource YAML
// (gopkg.in/yaml.v3), generalized from a one-off resource file into the
// service's full settings document.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mozilla-services/syncstorage-go/pkg/log"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/boltdb"
)

// Config is syncstored's complete configuration, loaded from the YAML
// file named by cmd/syncstored's --config flag. No flag overrides its
// fields.
type Config struct {
	// ListenAddr is the address for the HTTP API. serve only logs it;
	// no HTTP API listener is started by this module.
	ListenAddr string `yaml:"listen_addr"`
	// MetricsAddr is the address the Prometheus /metrics endpoint binds
	// to. Empty disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	DataDir           string `yaml:"data_dir"`
	PoolMaxSize       int    `yaml:"pool_max_size"`
	BatchTTLSeconds   int64  `yaml:"batch_ttl_seconds"`
	MaxPayloadBytes   int    `yaml:"max_payload_bytes"`
	MaxTTLSeconds     int    `yaml:"max_ttl_seconds"`
	QuotaEnabled      bool   `yaml:"quota_enabled"`
	QuotaBytesPerUser int    `yaml:"quota_bytes_per_user"`
	MaxTotalRecords   int    `yaml:"max_total_records"`
	MaxTotalBytes     int    `yaml:"max_total_bytes"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	boltDefaults := boltdb.DefaultConfig("./data")
	return Config{
		ListenAddr:        ":8000",
		MetricsAddr:       ":8001",
		LogLevel:          "info",
		LogJSON:           false,
		DataDir:           boltDefaults.DataDir,
		PoolMaxSize:       boltDefaults.PoolMaxSize,
		BatchTTLSeconds:   boltDefaults.BatchTTLSeconds,
		MaxPayloadBytes:   boltDefaults.MaxPayloadBytes,
		MaxTTLSeconds:     boltDefaults.MaxTTLSeconds,
		QuotaEnabled:      boltDefaults.QuotaEnabled,
		QuotaBytesPerUser: boltDefaults.QuotaBytesPerUser,
		MaxTotalRecords:   boltDefaults.MaxTotalRecords,
		MaxTotalBytes:     boltDefaults.MaxTotalBytes,
	}
}

// Load reads and parses a YAML configuration file, starting from
// Default() so an omitted field keeps its default rather than zeroing
// out.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the backend or server
// meaningless to start.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if c.PoolMaxSize <= 0 {
		return fmt.Errorf("config: pool_max_size must be positive")
	}
	if c.MaxPayloadBytes <= 0 {
		return fmt.Errorf("config: max_payload_bytes must be positive")
	}
	return nil
}

// BoltConfig projects the storage-relevant fields into a boltdb.Config.
func (c Config) BoltConfig() boltdb.Config {
	return boltdb.Config{
		DataDir:           c.DataDir,
		PoolMaxSize:       c.PoolMaxSize,
		BatchTTLSeconds:   c.BatchTTLSeconds,
		MaxPayloadBytes:   c.MaxPayloadBytes,
		MaxTTLSeconds:     c.MaxTTLSeconds,
		QuotaEnabled:      c.QuotaEnabled,
		QuotaBytesPerUser: c.QuotaBytesPerUser,
		MaxTotalRecords:   c.MaxTotalRecords,
		MaxTotalBytes:     c.MaxTotalBytes,
	}
}

// LogConfig projects the logging fields into a log.Config.
func (c Config) LogConfig() log.Config {
	return log.Config{
		Level:      log.Level(c.LogLevel),
		JSONOutput: c.LogJSON,
	}
}
