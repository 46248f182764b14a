// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

// Package config loads server configuration: struct defaults, then an
// optional YAML file, then CLI flags. DATABASE_URL from the environment
// wins for the database DSN.
package config

import (
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values for the serve command.
const (
	DefaultAddr                 = ":8080"
	DefaultMetricsAddr          = "127.0.0.1:9100"
	DefaultLogFormat            = "json"
	DefaultSessionIdleTimeout   = 30 * time.Minute
	DefaultSessionSweepInterval = 5 * time.Minute
	DefaultLoginMaxAttempts     = 5
	DefaultLoginWindow          = time.Minute
)

// Config holds the serve command configuration. Keys are kebab-case so the
// YAML file and CLI flags line up.
type Config struct {
	Addr                 string        `koanf:"addr"`
	MetricsAddr          string        `koanf:"metrics-addr"`
	DatabaseURL          string        `koanf:"database-url"`
	LogFormat            string        `koanf:"log-format"`
	SessionIdleTimeout   time.Duration `koanf:"session-idle-timeout"`
	SessionSweepInterval time.Duration `koanf:"session-sweep-interval"`
	LoginMaxAttempts     int           `koanf:"login-max-attempts"`
	LoginWindow          time.Duration `koanf:"login-window"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Addr:                 DefaultAddr,
		MetricsAddr:          DefaultMetricsAddr,
		LogFormat:            DefaultLogFormat,
		SessionIdleTimeout:   DefaultSessionIdleTimeout,
		SessionSweepInterval: DefaultSessionSweepInterval,
		LoginMaxAttempts:     DefaultLoginMaxAttempts,
		LoginWindow:          DefaultLoginWindow,
	}
}

// Load builds the effective configuration. path may be empty (no file);
// flags may be nil. Unchanged flags never override file values because the
// posflag provider consults the koanf instance for existing keys.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			Result:           cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}

	// The DSN carries credentials, so the environment wins over file and flags.
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.DatabaseURL = dsn
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("addr cannot be empty")
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database url is required (flag, file, or DATABASE_URL)")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log format must be json or text, got %q", c.LogFormat)
	}
	if c.SessionIdleTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session idle timeout must be positive")
	}
	if c.SessionSweepInterval <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session sweep interval must be positive")
	}
	if c.LoginMaxAttempts <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("login max attempts must be positive")
	}
	if c.LoginWindow <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("login window must be positive")
	}
	return nil
}
