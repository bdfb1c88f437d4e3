// Package config loads application settings and metric declaration files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// Config is the application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
	Ingest IngestConfig `yaml:"ingest"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	// MaxBodyBytes caps compute and ingest bodies; zero keeps the handler default.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// StoreConfig configures the sqlite store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level     string `yaml:"level"`  // debug, info, warn, error
	Format    string `yaml:"format"` // text or json
	Output    string `yaml:"output"` // stdout, stderr or file
	FilePath  string `yaml:"file_path"`
	AddSource bool   `yaml:"add_source"`
}

// EngineConfig configures metric computation.
type EngineConfig struct {
	Timezone  string `yaml:"timezone"`
	Dashboard string `yaml:"dashboard"` // declaration file; empty uses the embedded default
}

// IngestConfig configures record loading.
type IngestConfig struct {
	Timeout     string                 `yaml:"timeout"`
	MaxAttempts int                    `yaml:"max_attempts"`
	Validation  *model.ValidationRules `yaml:"validation,omitempty"`
}

const (
	defaultAddr         = ":8080"
	defaultStorePath    = "metrics.db"
	defaultReadTimeout  = "15s"
	defaultWriteTimeout = "30s"
	defaultIngestTime   = "30s"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML file at path, expanding ${VAR} references from the environment
// and any .env file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	loadEnvFile()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadEnvFile loads the first of .env and .env.local that exists. Variables already set win.
func loadEnvFile() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err == nil {
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Server.ReadTimeout == "" {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == "" {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Engine.Timezone == "" {
		cfg.Engine.Timezone = "UTC"
	}
	if cfg.Ingest.Timeout == "" {
		cfg.Ingest.Timeout = defaultIngestTime
	}
	if cfg.Ingest.MaxAttempts == 0 {
		cfg.Ingest.MaxAttempts = 3
	}
}

// Validate checks enumerations and values that would only fail later at runtime.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'text'", c.Log.Format)
	}
	switch c.Log.Output {
	case "stdout", "stderr":
	case "file":
		if c.Log.FilePath == "" {
			return fmt.Errorf("log.file_path is required when output is 'file'")
		}
	default:
		return fmt.Errorf("invalid log output: %s", c.Log.Output)
	}

	if _, err := c.Engine.Location(); err != nil {
		return err
	}
	for name, d := range map[string]string{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"ingest.timeout":       c.Ingest.Timeout,
	} {
		if parsed, err := time.ParseDuration(d); err != nil || parsed <= 0 {
			return fmt.Errorf("invalid %s: %q", name, d)
		}
	}
	if c.Ingest.MaxAttempts < 1 {
		return fmt.Errorf("ingest.max_attempts must be at least 1")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}

// Location resolves the configured time zone.
func (e EngineConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid engine timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

func (s ServerConfig) ReadTimeoutDuration() time.Duration {
	return utils.ParseDuration(s.ReadTimeout, 15*time.Second)
}

func (s ServerConfig) WriteTimeoutDuration() time.Duration {
	return utils.ParseDuration(s.WriteTimeout, 30*time.Second)
}

func (i IngestConfig) TimeoutDuration() time.Duration {
	return utils.ParseDuration(i.Timeout, 30*time.Second)
}
