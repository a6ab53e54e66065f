// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/pkg/errutil"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fintrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", nil, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.HTTP.IdleTimeout)
	assert.False(t, cfg.HTTP.CookieSecure)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, uint64(5), cfg.Database.ConnectRetries)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "fintrack", cfg.Token.Issuer)
	assert.Equal(t, 24*time.Hour, cfg.Token.TTL)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 10*time.Second, cfg.OTP.DeliveryTimeout)
	assert.Equal(t, "log", cfg.Notify.Driver)
	assert.Equal(t, "Finance Manager <no-reply@fintrack.local>", cfg.Notify.From)
	assert.Equal(t, 587, cfg.Notify.SMTP.Port)
	assert.Equal(t, "mandatory", cfg.Notify.SMTP.TLS)
	assert.Equal(t, "us-east-1", cfg.Notify.SES.Region)
	assert.Equal(t, Secrets{}, cfg.Secrets)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
http:
  addr: ":9090"
  cookie_secure: true
store:
  driver: memory
otp:
  ttl: 2m
notify:
  driver: smtp
  smtp:
    host: smtp.example.com
    port: 2525
`)
	cfg, err := load(path, nil, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.CookieSecure)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 2*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, "smtp.example.com", cfg.Notify.SMTP.Host)
	assert.Equal(t, 2525, cfg.Notify.SMTP.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, "mandatory", cfg.Notify.SMTP.TLS)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "log:\n  format: text\n  level: debug\nhttp:\n  addr: \":9090\"\n")
	fs := newFlags(t, "--log.level", "warn", "--store.driver=memory")

	cfg, err := load(path, fs, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	// Unchanged flags do not clobber the file.
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoad_EmptyMetricsAddrFlagDisables(t *testing.T) {
	cfg, err := load("", newFlags(t, "--metrics.addr="), map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_SecretsFromEnvironment(t *testing.T) {
	path := writeFile(t, "notify:\n  driver: ses\n")
	cfg, err := load(path, nil, map[string]string{
		"DATABASE_URL":                   "postgres://localhost/fintrack",
		"FINTRACK_JWT_SECRET":            strings.Repeat("k", 32),
		"FINTRACK_SMTP_PASSWORD":         "smtp-pass",
		"FINTRACK_SES_ACCESS_KEY_ID":     "AKIA",
		"FINTRACK_SES_SECRET_ACCESS_KEY": "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, Secrets{
		DatabaseURL:        "postgres://localhost/fintrack",
		JWTSecret:          strings.Repeat("k", 32),
		SMTPPassword:       "smtp-pass",
		SESAccessKeyID:     "AKIA",
		SESSecretAccessKey: "secret",
	}, cfg.Secrets)
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/fintrack")
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/fintrack", cfg.Secrets.DatabaseURL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), nil, map[string]string{})
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_INVALID")

	_, err = load(writeFile(t, "http: [unterminated"), nil, map[string]string{})
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_INVALID")

	_, err = load(writeFile(t, "otp:\n  ttl: soon\n"), nil, map[string]string{})
	errutil.AssertErrorCode(t, err, "CONFIG_DECODE_FAILED")
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := load("", nil, map[string]string{"DATABASE_URL": "postgres://localhost/fintrack"})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"http addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"store driver", func(c *Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"postgres needs dsn", func(c *Config) { c.Secrets.DatabaseURL = "" }, "DATABASE_URL"},
		{"notify driver", func(c *Config) { c.Notify.Driver = "sms" }, "notify.driver"},
		{"smtp needs host", func(c *Config) { c.Notify.Driver = "smtp" }, "notify.smtp.host"},
		{"smtp tls policy", func(c *Config) {
			c.Notify.Driver = "smtp"
			c.Notify.SMTP.Host = "smtp.example.com"
			c.Notify.SMTP.TLS = "sometimes"
		}, "notify.smtp.tls"},
		{"ses needs region", func(c *Config) {
			c.Notify.Driver = "ses"
			c.Notify.SES.Region = ""
		}, "notify.ses.region"},
		{"short jwt secret", func(c *Config) { c.Secrets.JWTSecret = "short" }, "FINTRACK_JWT_SECRET"},
		{"zero query timeout", func(c *Config) { c.Database.QueryTimeout = 0 }, "database.query_timeout"},
		{"negative otp ttl", func(c *Config) { c.OTP.TTL = -time.Second }, "otp.ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}
}

func TestValidate_MemoryStoreNeedsNoDSN(t *testing.T) {
	cfg := validConfig(t)
	cfg.Store.Driver = StoreMemory
	cfg.Secrets.DatabaseURL = ""
	assert.NoError(t, cfg.Validate())
}
