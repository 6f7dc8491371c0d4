// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads flowdom configuration from YAML.
//
// Defaults are embedded in the binary. A user file only needs the keys it
// changes; everything else keeps its default.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/AleutianAI/flowdom/pkg/logging"
	"github.com/AleutianAI/flowdom/services/flow/cache"
	"github.com/AleutianAI/flowdom/services/flow/telemetry"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize bounds the size of a config file.
const MaxConfigFileSize = 1 << 20

// ErrInvalidConfig indicates the configuration failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed flowdom.yaml
var defaultYAML []byte

var configValidate = validator.New()

// Config is the complete flowdom configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server" validate:"required"`
	Analysis  AnalysisConfig   `yaml:"analysis" validate:"required"`
	Cache     cache.Config     `yaml:"cache"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	RateLimit      float64       `yaml:"rate_limit" validate:"gt=0"`
	Burst          int           `yaml:"burst" validate:"min=1"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" validate:"min=1024"`
}

// AnalysisConfig bounds analysis work.
type AnalysisConfig struct {
	MaxBlocks        int           `yaml:"max_blocks" validate:"min=1"`
	MaxEdges         int           `yaml:"max_edges" validate:"min=1"`
	BatchConcurrency int           `yaml:"batch_concurrency" validate:"min=1,max=256"`
	AnalysisTimeout  time.Duration `yaml:"analysis_timeout" validate:"gt=0"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=auto text json"`
	Dir    string `yaml:"dir"`
}

// LoggerConfig converts the section into a logging.Config.
func (l LoggingConfig) LoggerConfig(service string) logging.Config {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.Config{
		Level:   level,
		Format:  logging.Format(l.Format),
		LogDir:  l.Dir,
		Service: service,
	}
}

// Default returns the embedded defaults with environment overrides applied.
func Default() *Config {
	cfg, err := parse(defaultYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded config is invalid: %v", err))
	}
	return cfg
}

// Load reads the file at path over the defaults. An empty path returns
// Default().
//
// Environment overrides, applied after the file:
//   - FLOWDOM_PORT: server.port
//   - OTEL_TRACES_EXPORTER, OTEL_METRICS_EXPORTER,
//     OTEL_EXPORTER_OTLP_ENDPOINT: telemetry exporters
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if info.Size() > MaxConfigFileSize {
		return nil, fmt.Errorf("%w: file too large: %d bytes (max %d)", ErrInvalidConfig, info.Size(), MaxConfigFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := parse(defaultYAML, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// parse decodes base, then overlay on top of it, applies the environment
// and validates.
func parse(base, overlay []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(base, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(overlay) > 0 {
		if err := yaml.Unmarshal(overlay, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FLOWDOM_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: FLOWDOM_PORT: %v", ErrInvalidConfig, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("OTEL_TRACES_EXPORTER"); v != "" {
		c.Telemetry.TraceExporter = v
	}
	if v := os.Getenv("OTEL_METRICS_EXPORTER"); v != "" {
		c.Telemetry.MetricExporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
	return nil
}

// Validate checks every section's constraints.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
