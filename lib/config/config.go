// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/telecap/lib/mcapfile"
)

// Environment variables read by Load and LoadFile.
const (
	EnvConfig        = "TELECAP_CONFIG"
	EnvLogLevel      = "TELECAP_LOG_LEVEL"
	EnvMetricsListen = "TELECAP_METRICS_LISTEN"
)

// Sink types.
const (
	SinkFile    = "file"
	SinkNetwork = "network"
)

// Config is the telecap configuration.
type Config struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	Metrics  MetricsConfig  `yaml:"metrics"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sinks    []SinkConfig   `yaml:"sinks"`
	Schemas  []SchemaConfig `yaml:"schemas"`

	// dir is the directory of the loaded file; relative schema paths
	// resolve against it.
	dir string
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address /metrics is served on. Empty disables it.
	Listen string `yaml:"listen"`
}

// PipelineConfig holds the write pipeline settings shared by sinks.
type PipelineConfig struct {
	FlushInterval time.Duration `yaml:"flush_interval"`
	SyncTimeout   time.Duration `yaml:"sync_timeout"`

	// PositionHistory is the number of poses kept per track; 0 keeps
	// all of them.
	PositionHistory int `yaml:"position_history"`

	ImageQuality  int `yaml:"image_quality"`
	MaxImageWidth int `yaml:"max_image_width"`
}

// SinkConfig describes one connection.
type SinkConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Encoding string `yaml:"encoding"`
	Sync     bool   `yaml:"sync"`

	// File sinks.
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
	Level       string `yaml:"level"`
	ChunkSize   int64  `yaml:"chunk_size"`

	// Network sinks.
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Label string `yaml:"label"`
}

// SchemaConfig registers an explicit schema for a channel.
type SchemaConfig struct {
	Channel string `yaml:"channel"`

	// Name is the schema title. Defaults to Channel.
	Name string `yaml:"name"`

	// File is a JSON Schema document; comments and trailing commas
	// are allowed.
	File string `yaml:"file"`
}

// Default returns the configuration used for fields the file leaves
// unset.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Pipeline: PipelineConfig{
			FlushInterval: 16 * time.Millisecond,
			SyncTimeout:   time.Second,
			ImageQuality:  95,
		},
	}
}

// Load loads the file named by TELECAP_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your telecap.yaml, or use --config", EnvConfig)
	}
	return LoadFile(path)
}

// LoadFile loads path over the defaults, expands variables and applies
// environment overrides. It does not validate; call Validate.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	cfg.expandVariables()
	cfg.applyEnvironment()
	return cfg, nil
}

func (c *Config) applyEnvironment() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if listen := os.Getenv(EnvMetricsListen); listen != "" {
		c.Metrics.Listen = listen
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{"HOME": os.Getenv("HOME")}
	c.Metrics.Listen = expandVars(c.Metrics.Listen, vars)
	for i := range c.Sinks {
		c.Sinks[i].Path = expandVars(c.Sinks[i].Path, vars)
		c.Sinks[i].Host = expandVars(c.Sinks[i].Host, vars)
	}
	for i := range c.Schemas {
		c.Schemas[i].File = expandVars(c.Schemas[i].File, vars)
	}
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, fallback := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// Level returns the parsed log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Pipeline.FlushInterval <= 0 {
		errs = append(errs, errors.New("pipeline.flush_interval must be positive"))
	}
	if c.Pipeline.SyncTimeout <= 0 {
		errs = append(errs, errors.New("pipeline.sync_timeout must be positive"))
	}
	if c.Pipeline.PositionHistory < 0 {
		errs = append(errs, errors.New("pipeline.position_history must not be negative"))
	}
	if c.Pipeline.ImageQuality < 1 || c.Pipeline.ImageQuality > 100 {
		errs = append(errs, fmt.Errorf("pipeline.image_quality must be 1-100, got %d", c.Pipeline.ImageQuality))
	}
	if c.Pipeline.MaxImageWidth < 0 {
		errs = append(errs, errors.New("pipeline.max_image_width must not be negative"))
	}

	names := make(map[string]bool)
	for i, s := range c.Sinks {
		field := fmt.Sprintf("sinks[%d]", i)
		if s.Name != "" {
			if names[s.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate name %q", field, s.Name))
			}
			names[s.Name] = true
		}
		switch s.Encoding {
		case "", "json", "cbor":
		default:
			errs = append(errs, fmt.Errorf("%s.encoding must be json or cbor, got %q", field, s.Encoding))
		}

		switch s.Type {
		case SinkFile:
			if s.Path == "" {
				errs = append(errs, fmt.Errorf("%s.path is required for file sinks", field))
			}
			if _, err := mcapfile.ParseCompression(s.Compression); err != nil {
				errs = append(errs, fmt.Errorf("%s.compression: %w", field, err))
			}
			if _, err := mcapfile.ParseLevel(s.Level); err != nil {
				errs = append(errs, fmt.Errorf("%s.level: %w", field, err))
			}
			if s.ChunkSize < 0 {
				errs = append(errs, fmt.Errorf("%s.chunk_size must not be negative", field))
			}
		case SinkNetwork:
			if s.Name == "" {
				errs = append(errs, fmt.Errorf("%s.name is required for network sinks", field))
			}
			if s.Port < 0 || s.Port > 65535 {
				errs = append(errs, fmt.Errorf("%s.port out of range: %d", field, s.Port))
			}
		default:
			errs = append(errs, fmt.Errorf("%s.type must be %q or %q, got %q", field, SinkFile, SinkNetwork, s.Type))
		}
	}

	for i, s := range c.Schemas {
		if s.Channel == "" {
			errs = append(errs, fmt.Errorf("schemas[%d].channel is required", i))
		}
		if s.File == "" {
			errs = append(errs, fmt.Errorf("schemas[%d].file is required", i))
		}
	}

	return errors.Join(errs...)
}

// SchemaPath resolves a schema file relative to the config file.
func (c *Config) SchemaPath(s SchemaConfig) string {
	if filepath.IsAbs(s.File) || c.dir == "" {
		return s.File
	}
	return filepath.Join(c.dir, s.File)
}

// LoadSchema reads a schema file and returns it as plain JSON.
func (c *Config) LoadSchema(s SchemaConfig) ([]byte, error) {
	path := c.SchemaPath(s)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema for channel %q: %w", s.Channel, err)
	}
	return jsonc.ToJSON(data), nil
}

// SchemaName returns the schema title for s.
func (s SchemaConfig) SchemaName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Channel
}
