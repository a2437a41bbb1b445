// Package daemon manages the questforge daemon lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/questforge/questforge/internal/app/engagement"
	"github.com/questforge/questforge/internal/infra/scheduler"
)

// EnvPrefix prefixes every environment override, e.g. QUESTFORGE_API_PORT.
const EnvPrefix = "QUESTFORGE"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api" envconfig:"API"`
	Store     StoreConfig     `toml:"store" envconfig:"STORE"`
	Clock     ClockConfig     `toml:"clock" envconfig:"CLOCK"`
	Catalog   CatalogConfig   `toml:"catalog" envconfig:"CATALOG"`
	Jobs      JobsConfig      `toml:"jobs" envconfig:"JOBS"`
	Logging   LoggingConfig   `toml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `toml:"telemetry" envconfig:"TELEMETRY"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host           string   `toml:"host" envconfig:"HOST"`
	Port           int      `toml:"port" envconfig:"PORT"`
	CORSOrigins    []string `toml:"cors_origins" envconfig:"CORS_ORIGINS"`
	RateLimitRPS   float64  `toml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `toml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver           string `toml:"driver" envconfig:"DRIVER"`
	Dir              string `toml:"dir" envconfig:"DIR"`
	RedisAddr        string `toml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword    string `toml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB          int    `toml:"redis_db" envconfig:"REDIS_DB"`
	RedisNamespace   string `toml:"redis_namespace" envconfig:"REDIS_NAMESPACE"`
	PostgresDSN      string `toml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
	PostgresMaxConns int32  `toml:"postgres_max_conns" envconfig:"POSTGRES_MAX_CONNS"`
	MaxRetries       int    `toml:"max_retries" envconfig:"MAX_RETRIES"`
	SessionCacheSize int    `toml:"session_cache_size" envconfig:"SESSION_CACHE_SIZE"`
}

// ClockConfig fixes the timezone that decides calendar days.
type ClockConfig struct {
	Timezone string `toml:"timezone" envconfig:"TIMEZONE"`
}

// CatalogConfig points at an optional quest/badge catalog file.
type CatalogConfig struct {
	File string `toml:"file" envconfig:"FILE"`
}

// JobsConfig controls scheduled maintenance.
type JobsConfig struct {
	PruneSchedule string `toml:"prune_schedule" envconfig:"PRUNE_SCHEDULE"`
	RetentionDays int    `toml:"retention_days" envconfig:"RETENTION_DAYS"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level" envconfig:"LEVEL"`
	Format string `toml:"format" envconfig:"FORMAT"` // json or console
	File   string `toml:"file" envconfig:"FILE"`
}

// TelemetryConfig controls the metrics endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus" envconfig:"PROMETHEUS"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	jobs := scheduler.DefaultConfig()
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8420,
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Store: StoreConfig{
			Driver:           DriverSQLite,
			Dir:              questforgeHome(),
			RedisNamespace:   "questforge:",
			PostgresMaxConns: 10,
			MaxRetries:       5,
			SessionCacheSize: engagement.DefaultSessionCacheSize,
		},
		Clock: ClockConfig{
			Timezone: "UTC",
		},
		Jobs: JobsConfig{
			PruneSchedule: jobs.PruneSchedule,
			RetentionDays: jobs.RetentionDays,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// ConfigPath returns the location of config.toml.
func ConfigPath() string {
	return filepath.Join(questforgeHome(), "config.toml")
}

// LoadConfig reads config from $QUESTFORGE_HOME/config.toml, falling back to
// defaults, then applies environment overrides.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(ConfigPath())
}

// LoadConfigFrom reads config from path. A missing file yields defaults.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if c.API.RateLimitRPS < 0 {
		errs = append(errs, errors.New("api.rate_limit_rps must not be negative"))
	}

	switch strings.ToLower(c.Store.Driver) {
	case DriverMemory, DriverSQLite:
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for the redis driver"))
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("store.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of memory, sqlite, redis, postgres", c.Store.Driver))
	}

	if c.Store.SessionCacheSize < 0 {
		errs = append(errs, errors.New("store.session_cache_size must not be negative"))
	}

	if c.Clock.Timezone != "" {
		if _, err := time.LoadLocation(c.Clock.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("clock.timezone: %w", err))
		}
	}
	if c.Jobs.RetentionDays <= 0 {
		errs = append(errs, errors.New("jobs.retention_days must be positive"))
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not json or console", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns host:port of the API listener.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// SaveConfig writes the config to $QUESTFORGE_HOME/config.toml.
func SaveConfig(cfg Config) error {
	return SaveConfigTo(ConfigPath(), cfg)
}

// SaveConfigTo writes the config to path.
func SaveConfigTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// questforgeHome returns the questforge data directory.
func questforgeHome() string {
	if env := os.Getenv("QUESTFORGE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".questforge")
}

// Home is exported for use by other packages.
func Home() string {
	return questforgeHome()
}
