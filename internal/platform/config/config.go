// Package config loads service settings with koanf. Sources are layered:
// built-in defaults, configs/base.yaml, configs/<profile>.yaml, DATABASE_URL
// and finally APP_* environment variables, each overriding the one before.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultServerPort     = 8000
	DefaultMaxRequestSize = 1 << 20

	// DefaultDatabaseURL points at the db service of the compose setup.
	DefaultDatabaseURL      = "postgresql://user:password@db:5432/mentormind_db"
	DefaultDatabaseMaxConns = 10

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28
)

const (
	envPrefix = "APP_"
	// legacyDatabaseURLEnv is the unprefixed variable docker-compose and most
	// hosting platforms set. APP_DATABASE_URL wins over it.
	legacyDatabaseURLEnv = "DATABASE_URL"
	configDir            = "configs"
)

type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Database  DatabaseConfig  `koanf:"database"  validate:"required"`
}

type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	// RequestTimeout bounds each API request, database session included.
	RequestTimeout time.Duration `koanf:"request_timeout"  validate:"required,min=100ms"`
	MaxRequestSize int64         `koanf:"max_request_size" validate:"required,min=1"`
}

type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig drives the lumberjack rotating file. Sizes are in megabytes
// and ages in days.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
	// Endpoint is the OTLP gRPC collector, host:port.
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true"`
	Insecure     bool    `koanf:"insecure"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// DatabaseConfig configures the PostgreSQL pool. URL is the only source of
// connection details; the rest tunes the pool.
type DatabaseConfig struct {
	URL               string        `koanf:"url"                 validate:"required,dsn"`
	MaxConns          int32         `koanf:"max_conns"           validate:"required,min=1,max=1000"`
	MinConns          int32         `koanf:"min_conns"           validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime   time.Duration `koanf:"max_conn_lifetime"   validate:"required,min=1s"`
	MaxConnIdleTime   time.Duration `koanf:"max_conn_idle_time"  validate:"required,min=1s"`
	HealthCheckPeriod time.Duration `koanf:"health_check_period" validate:"required,min=1s"`
	ConnectTimeout    time.Duration `koanf:"connect_timeout"     validate:"required,min=100ms"`
	// AutoConnect opens a connection for every bound context up front instead
	// of on first use.
	AutoConnect bool `koanf:"auto_connect"`
}

var defaults = map[string]any{
	"app": map[string]any{
		"name":        "mentormind-backend",
		"version":     "dev",
		"environment": "local",
	},
	"server": map[string]any{
		"port":             DefaultServerPort,
		"host":             "0.0.0.0",
		"read_timeout":     "30s",
		"write_timeout":    "30s",
		"idle_timeout":     "120s",
		"shutdown_timeout": "10s",
		"request_timeout":  "30s",
		"max_request_size": DefaultMaxRequestSize,
	},
	"log": map[string]any{
		"level":  "info",
		"format": "json",
		"file": map[string]any{
			"enabled":     false,
			"path":        "./logs/app.log",
			"max_size":    DefaultLogFileMaxSizeMB,
			"max_backups": DefaultLogFileMaxBackups,
			"max_age":     DefaultLogFileMaxAgeDays,
			"compress":    true,
		},
	},
	"telemetry": map[string]any{
		"enabled":       false,
		"endpoint":      "",
		"insecure":      true,
		"service_name":  "mentormind-backend",
		"sampling_rate": 1.0,
	},
	"database": map[string]any{
		"url":                 DefaultDatabaseURL,
		"max_conns":           DefaultDatabaseMaxConns,
		"min_conns":           0,
		"max_conn_lifetime":   "1h",
		"max_conn_idle_time":  "30m",
		"health_check_period": "1m",
		"connect_timeout":     "5s",
		"auto_connect":        false,
	},
}

// Load merges every source for profile. A missing YAML file is skipped; a
// malformed one is an error. The result is not validated, call Validate.
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, ""), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	files := []string{filepath.Join(configDir, "base.yaml")}
	if profile != "" {
		files = append(files, filepath.Join(configDir, profile+".yaml"))
	}

	for _, path := range files {
		if err := loadYAML(k, path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if url := os.Getenv(legacyDatabaseURLEnv); url != "" {
		if err := k.Set("database.url", url); err != nil {
			return nil, fmt.Errorf("loading %s: %w", legacyDatabaseURLEnv, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// envKey maps APP_DATABASE_MAX_CONNS to database.max_conns and
// APP_LOG_FILE_MAX_SIZE to log.file.max_size. Only section boundaries become
// dots, so multi-word keys keep their underscores.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))

	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}

	if sub, nested := strings.CutPrefix(rest, "file_"); nested && section == "log" {
		return "log.file." + sub
	}

	return section + "." + rest
}

func loadYAML(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
