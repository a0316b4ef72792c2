// Package config loads the demo server configuration from an optional YAML
// file and PIPELINE_ prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/douglasgreyling/pipeline"
)

// EnvPrefix prefixes every environment variable read by Load. A double
// underscore separates nested keys: PIPELINE_ERRORS__LOG_ERRORS=true sets
// errors.log_errors.
const EnvPrefix = "PIPELINE_"

type Config struct {
	Mode      string          `koanf:"mode"`
	Server    ServerConfig    `koanf:"server"`
	Timing    TimingConfig    `koanf:"timing"`
	Errors    ErrorsConfig    `koanf:"errors"`
	NotFound  NotFoundConfig  `koanf:"not_found"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type TimingConfig struct {
	Header string `koanf:"header"`
}

type ErrorsConfig struct {
	Code       int    `koanf:"code"`
	Message    string `koanf:"message"`
	StackTrace *bool  `koanf:"stack_trace"` // unset: follow mode
	LogErrors  bool   `koanf:"log_errors"`
}

type NotFoundConfig struct {
	Code    int    `koanf:"code"`
	Message string `koanf:"message"`
}

type RateLimitConfig struct {
	Enabled bool `koanf:"enabled"`
	Rate    int  `koanf:"rate"`
	Burst   int  `koanf:"burst"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

var defaults = map[string]any{
	"mode":                    pipeline.ModeProduction,
	"server.addr":             ":3000",
	"server.timeout":          "30s",
	"server.shutdown_timeout": "10s",
	"timing.header":           pipeline.DefaultTimingHeader,
	"errors.code":             pipeline.DefaultErrorCode,
	"errors.message":          pipeline.DefaultErrorMessage,
	"not_found.code":          404,
	"not_found.message":       "Not Found",
	"rate_limit.rate":         100,
	"rate_limit.burst":        200,
	"telemetry.service_name":  "pipeline",
}

// Load reads path (skipped when empty or missing), then the environment.
// Environment values win over file values.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// ModeProvider reports the configured mode
func (c *Config) ModeProvider() pipeline.ModeProvider {
	return pipeline.StaticMode(c.Mode)
}

// TimingOptions returns the options for pipeline.ResponseTime
func (c *Config) TimingOptions() []pipeline.TimingOption {
	return []pipeline.TimingOption{pipeline.WithTimingHeader(c.Timing.Header)}
}

// LoggerOptions returns the options for pipeline.Logger
func (c *Config) LoggerOptions() []pipeline.LoggerOption {
	return []pipeline.LoggerOption{pipeline.WithLogHeader(c.Timing.Header)}
}

// ErrorOptions returns the options for pipeline.HandleError
func (c *Config) ErrorOptions() []pipeline.ErrorOption {
	opts := []pipeline.ErrorOption{
		pipeline.WithErrorCode(c.Errors.Code),
		pipeline.WithErrorMessage(c.Errors.Message),
		pipeline.WithLogErrors(c.Errors.LogErrors),
		pipeline.WithModeProvider(c.ModeProvider()),
	}
	if c.Errors.StackTrace != nil {
		opts = append(opts, pipeline.WithStackTrace(*c.Errors.StackTrace))
	}
	return opts
}

// NotFoundOptions returns the options for pipeline.HandleNotFound
func (c *Config) NotFoundOptions() []pipeline.NotFoundOption {
	return []pipeline.NotFoundOption{
		pipeline.WithNotFoundCode(c.NotFound.Code),
		pipeline.WithNotFoundMessage(c.NotFound.Message),
	}
}
