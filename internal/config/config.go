// Package config loads the server configuration from a YAML file.
//
// Every key has a default, so a missing file section (or no file at all)
// yields a runnable local setup: SQLite storage, no Redis, and the HTTP and
// gRPC listeners on their usual ports.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no --config flag is
// given.
const EnvVar = "SUPPLYDESK_CONFIG"

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config is the full server configuration.
type Config struct {
	// HTTPAddr is the listen address of the JSON API. Empty disables it.
	HTTPAddr string `yaml:"http_addr"`

	// GRPCAddr is the listen address of the gRPC API. Empty disables it.
	GRPCAddr string `yaml:"grpc_addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Store StoreConfig `yaml:"store"`
	Redis RedisConfig `yaml:"redis"`

	// ShutdownTimeout bounds graceful shutdown of the listeners.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is sqlite, mysql or memory.
	Driver string `yaml:"driver"`

	// DSN is a file path for sqlite and a go-sql-driver DSN for mysql.
	DSN string `yaml:"dsn"`

	// MaxOpenConns sizes the mysql pool. SQLite always uses one connection.
	MaxOpenConns int `yaml:"max_open_conns"`
}

// RedisConfig enables distributed request locks and idempotent submissions.
type RedisConfig struct {
	// Addr is host:port. Empty means no Redis: locks are in-process and
	// idempotency keys are ignored.
	Addr string `yaml:"addr"`

	LockTTL        time.Duration `yaml:"lock_ttl"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	return &Config{
		HTTPAddr: ":8080",
		GRPCAddr: ":50051",
		LogLevel: "info",
		Store: StoreConfig{
			Driver:       DriverSQLite,
			DSN:          "supplydesk.db",
			MaxOpenConns: 50,
		},
		Redis: RedisConfig{
			LockTTL:        10 * time.Second,
			IdempotencyTTL: 24 * time.Hour,
		},
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load reads path over the defaults. An empty path falls back to EnvVar and
// then to the defaults alone.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverMySQL:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store.driver %q (want sqlite, mysql or memory)", c.Store.Driver)
	}

	if c.Store.Driver == DriverMySQL && c.Store.MaxOpenConns <= 0 {
		return fmt.Errorf("store.max_open_conns must be positive, got %d", c.Store.MaxOpenConns)
	}
	if c.Redis.LockTTL <= 0 {
		return fmt.Errorf("redis.lock_ttl must be positive, got %s", c.Redis.LockTTL)
	}
	if c.Redis.IdempotencyTTL <= 0 {
		return fmt.Errorf("redis.idempotency_ttl must be positive, got %s", c.Redis.IdempotencyTTL)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}
