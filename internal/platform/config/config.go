// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultQOTDPort is the default port for both QOTD transports.
	// The protocol's well-known port 17 is privileged, so the daemon uses an alternate.
	DefaultQOTDPort = 10017

	// DefaultReadBufferSize is the receive buffer for inbound datagrams.
	// Datagram payloads are discarded, so anything beyond it is truncated harmlessly.
	DefaultReadBufferSize = 512

	// DefaultAdminPort is the default port for the admin HTTP server.
	DefaultAdminPort = 10080

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28

	// EnvPrefix prefixes every environment variable read by Load.
	// Nested keys are separated by a double underscore: QOTD_LOG__FILE__PATH.
	EnvPrefix = "QOTD_"
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	QOTD      QOTDConfig      `koanf:"qotd"      validate:"required"`
	Admin     AdminConfig     `koanf:"admin"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// QOTDConfig contains settings for the TCP and UDP quote listeners.
type QOTDConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"             validate:"required,min=1,max=65535"`
	QuotesFile     string        `koanf:"quotes_file"      validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout"    validate:"min=0"`
	ReadBufferSize int           `koanf:"read_buffer_size" validate:"required,min=1,max=65535"`
}

// AdminConfig contains settings for the admin HTTP server.
type AdminConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"             validate:"required_if=Enabled true,omitempty,min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required_if=Enabled true,omitempty,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required_if=Enabled true,omitempty,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required_if=Enabled true,omitempty,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool              `koanf:"enabled"`
	Endpoint     string            `koanf:"endpoint"      validate:"required_if=Enabled true"`
	Insecure     bool              `koanf:"insecure"`
	Headers      map[string]string `koanf:"headers"`
	ServiceName  string            `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64           `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "qotd",
		"app.version":     "dev",
		"app.environment": "local",

		"qotd.host":             "",
		"qotd.port":             DefaultQOTDPort,
		"qotd.quotes_file":      "",
		"qotd.write_timeout":    "0s",
		"qotd.read_buffer_size": DefaultReadBufferSize,

		"admin.enabled":          true,
		"admin.host":             "127.0.0.1",
		"admin.port":             DefaultAdminPort,
		"admin.read_timeout":     "5s",
		"admin.write_timeout":    "10s",
		"admin.idle_timeout":     "60s",
		"admin.shutdown_timeout": "10s",

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/qotd.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.insecure":      false,
		"telemetry.service_name":  "qotd",
		"telemetry.sampling_rate": 1.0,
	}
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (QOTD_ prefix)
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
func Load(profile string) (*Config, error) {
	return LoadWithOverrides(profile, nil)
}

// LoadWithOverrides behaves like Load and then applies overrides on top of
// every other source. Keys use koanf dot notation, e.g. "qotd.port".
// The command line feeds its positional arguments through here.
func LoadWithOverrides(profile string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load base config file if it exists
	err = loadFileIfExists(k, "configs/base.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	// 3. Load profile config file if it exists
	if profile != "" {
		profilePath := fmt.Sprintf("configs/%s.yaml", profile)

		err := loadFileIfExists(k, profilePath)
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	// 4. Load environment variables with QOTD_ prefix
	err = k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// 5. Command line overrides
	if len(overrides) > 0 {
		err = k.Load(confmap.Provider(overrides, "."), nil)
		if err != nil {
			return nil, fmt.Errorf("loading overrides: %w", err)
		}
	}

	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKey maps QOTD_QOTD__QUOTES_FILE to qotd.quotes_file.
func envKey(s string) string {
	return strings.ReplaceAll(
		strings.ToLower(strings.TrimPrefix(s, EnvPrefix)),
		"__",
		".",
	)
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
