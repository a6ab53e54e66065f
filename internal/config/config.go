// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

// Package config loads service configuration from built-in defaults, an
// optional YAML file and command-line flags. Secrets are read only from the
// environment.
package config

import (
	_ "embed"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the complete service configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Store    StoreConfig    `koanf:"store"`
	Database DatabaseConfig `koanf:"database"`
	Token    TokenConfig    `koanf:"token"`
	OTP      OTPConfig      `koanf:"otp"`
	Notify   NotifyConfig   `koanf:"notify"`

	Secrets Secrets `koanf:"-"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// MetricsConfig configures the observability listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// StoreConfig selects the repository implementation.
type StoreConfig struct {
	Driver string `koanf:"driver"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	MaxConns       int32         `koanf:"max_conns"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	QueryTimeout   time.Duration `koanf:"query_timeout"`
	ConnectRetries uint64        `koanf:"connect_retries"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
}

// TokenConfig configures session tokens.
type TokenConfig struct {
	Issuer string        `koanf:"issuer"`
	TTL    time.Duration `koanf:"ttl"`
}

// OTPConfig configures one-time codes.
type OTPConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	DeliveryTimeout time.Duration `koanf:"delivery_timeout"`
}

// NotifyConfig selects and configures the OTP notifier.
type NotifyConfig struct {
	Driver string     `koanf:"driver"`
	From   string     `koanf:"from"`
	SMTP   SMTPConfig `koanf:"smtp"`
	SES    SESConfig  `koanf:"ses"`
}

// SMTPConfig configures the SMTP notifier. The password is a secret.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	TLS      string `koanf:"tls"`
	Retries  uint64 `koanf:"retries"`
}

// SESConfig configures the SES notifier. Static credentials are secrets;
// without them the default AWS credential chain applies.
type SESConfig struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
}

// Secrets holds values that never come from files or flags.
type Secrets struct {
	DatabaseURL        string `env:"DATABASE_URL"`
	JWTSecret          string `env:"FINTRACK_JWT_SECRET"`
	SMTPPassword       string `env:"FINTRACK_SMTP_PASSWORD"`
	SESAccessKeyID     string `env:"FINTRACK_SES_ACCESS_KEY_ID"`
	SESSecretAccessKey string `env:"FINTRACK_SES_SECRET_ACCESS_KEY"`
}

// RegisterFlags adds the overridable settings to fs. Flag names are the
// dotted config keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http.addr", ":8080", "API listen address")
	fs.String("metrics.addr", "127.0.0.1:9100", "metrics/health listen address (empty = disabled)")
	fs.String("log.format", "json", "log format (json or text)")
	fs.String("log.level", "info", "log level (debug, info, warn, error)")
	fs.String("store.driver", StorePostgres, "account and OTP store (postgres or memory)")
	fs.String("notify.driver", "log", "OTP delivery (log, smtp or ses)")
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then flags changed on fs (if non-nil), then secrets from the
// process environment.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	return load(path, fs, nil)
}

// bytesProvider serves an in-memory document to koanf.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) { return b, nil }

func (b bytesProvider) Read() (map[string]any, error) {
	return nil, oops.Errorf("bytesProvider does not support Read")
}

// load reads secrets from environ when non-nil, else from the process environment.
func load(path string, fs *pflag.FlagSet, environ map[string]string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(bytesProvider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_INVALID").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		// With k passed, unchanged flags do not override defaults or the file.
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}

	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg.Secrets, opts); err != nil {
		return nil, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	return &cfg, nil
}
