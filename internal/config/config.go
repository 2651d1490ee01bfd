// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package config loads server configuration from flags, an optional YAML
// file, the environment, and a .env file.
//
// Precedence, lowest first: flag defaults, config file, environment,
// explicitly set flags. A .env file only fills variables the environment
// does not already define.
package config

import (
	"errors"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Session store backends.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Defaults.
const (
	DefaultHTTPAddr     = ":8080"
	DefaultMetricsAddr  = "127.0.0.1:9100"
	DefaultLogFormat    = "json"
	DefaultSessionStore = StorePostgres
	DefaultStoreTimeout = 3 * time.Second
)

// EnvPrefix marks environment variables that map onto config keys, e.g.
// MAPEX_HTTP_ADDR sets http_addr.
const EnvPrefix = "MAPEX_"

// Config is the server configuration.
type Config struct {
	HTTPAddr       string        `koanf:"http_addr"`
	MetricsAddr    string        `koanf:"metrics_addr"`
	LogFormat      string        `koanf:"log_format"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	CookieDomain   string        `koanf:"cookie_domain"`
	CookieSecure   bool          `koanf:"cookie_secure"`
	SessionStore   string        `koanf:"session_store"`
	StoreTimeout   time.Duration `koanf:"store_timeout"`
	DatabaseURL    string        `koanf:"database_url"`
	RedisURL       string        `koanf:"redis_url"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
}

// keys lists every config key; flags outside it are ignored.
var keys = []string{
	"http_addr", "metrics_addr", "log_format", "allowed_origins", "cookie_domain",
	"cookie_secure", "session_store", "store_timeout", "database_url", "redis_url",
	"auto_migrate",
}

// plainEnv maps conventional unprefixed variables onto keys.
var plainEnv = map[string]string{
	"DATABASE_URL": "database_url",
	"REDIS_URL":    "redis_url",
}

// RegisterFlags adds the config flags and their defaults to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("http-addr", DefaultHTTPAddr, "HTTP listen address")
	flags.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("log-format", DefaultLogFormat, "log format (json or text)")
	flags.StringSlice("allowed-origins", nil, "origins allowed to make credentialed requests")
	flags.String("cookie-domain", "", "session cookie domain")
	flags.Bool("cookie-secure", true, "mark the session cookie Secure")
	flags.String("session-store", DefaultSessionStore, "session backend (postgres, redis or memory)")
	flags.Duration("store-timeout", DefaultStoreTimeout, "timeout for each store operation")
	flags.String("database-url", "", "PostgreSQL connection URL (or DATABASE_URL)")
	flags.String("redis-url", "", "Redis connection URL (or REDIS_URL)")
	flags.Bool("auto-migrate", false, "apply pending migrations at startup")
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an optional YAML file.
	ConfigFile string
	// EnvFile is loaded into the environment if present. Defaults to ".env".
	EnvFile string
}

// Load builds a Config. flags must have been prepared with RegisterFlags
// and may be nil.
func Load(flags *pflag.FlagSet, opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Code("CONFIG_ENV_FILE_INVALID").With("file", envFile).Wrap(err)
	}

	k := koanf.New(".")

	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").With("file", opts.ConfigFile).Wrap(err)
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, err
	}

	if flags != nil {
		err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !slices.Contains(keys, key) {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil)
		if err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	cfg := &Config{
		HTTPAddr:     DefaultHTTPAddr,
		MetricsAddr:  DefaultMetricsAddr,
		LogFormat:    DefaultLogFormat,
		CookieSecure: true,
		SessionStore: DefaultSessionStore,
		StoreTimeout: DefaultStoreTimeout,
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return cfg, nil
}

// loadEnv loads the unprefixed aliases first so MAPEX_ variables win.
func loadEnv(k *koanf.Koanf) error {
	aliases := env.Provider(".", env.Opt{
		TransformFunc: func(name, value string) (string, any) {
			key, ok := plainEnv[name]
			if !ok || value == "" {
				return "", nil
			}
			return key, value
		},
	})
	if err := k.Load(aliases, nil); err != nil {
		return oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	prefixed := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(name, value string) (string, any) {
			key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
			if !slices.Contains(keys, key) {
				return "", nil
			}
			if key == "allowed_origins" {
				return key, splitList(value)
			}
			return key, value
		},
	})
	if err := k.Load(prefixed, nil); err != nil {
		return oops.Code("CONFIG_ENV_INVALID").With("prefix", EnvPrefix).Wrap(err)
	}
	return nil
}

// splitList turns a comma-separated variable into a list.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return oops.Code("CONFIG_INVALID").With("key", "http_addr").Errorf("http_addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("key", "log_format").
			Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	switch c.SessionStore {
	case StorePostgres, StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return oops.Code("CONFIG_INVALID").
				With("key", "redis_url").
				Errorf("redis_url (or REDIS_URL) is required for the redis session store")
		}
	default:
		return oops.Code("CONFIG_INVALID").
			With("key", "session_store").
			Errorf("session_store must be postgres, redis or memory, got %q", c.SessionStore)
	}
	if c.NeedsDatabase() && c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "database_url").
			Errorf("database_url (or DATABASE_URL) is required")
	}
	if c.StoreTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("key", "store_timeout").
			Errorf("store_timeout must be positive, got %s", c.StoreTimeout)
	}
	return nil
}

// NeedsDatabase reports whether PostgreSQL is required.
func (c *Config) NeedsDatabase() bool {
	return c.SessionStore != StoreMemory
}
