// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package config

import (
	"strings"
	"time"

	"github.com/samber/oops"
)

const minJWTSecretLength = 32

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log.level", "log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}

	switch c.Store.Driver {
	case StorePostgres:
		if c.Secrets.DatabaseURL == "" {
			return invalid("DATABASE_URL", "DATABASE_URL environment variable is required for the postgres store")
		}
		if c.Database.MaxConns < 0 {
			return invalid("database.max_conns", "database.max_conns must not be negative")
		}
	case StoreMemory:
	default:
		return invalid("store.driver", "store.driver must be 'postgres' or 'memory', got %q", c.Store.Driver)
	}

	switch c.Notify.Driver {
	case "log", "ses":
	case "smtp":
		if c.Notify.SMTP.Host == "" {
			return invalid("notify.smtp.host", "notify.smtp.host is required for the smtp notifier")
		}
		switch c.Notify.SMTP.TLS {
		case "", "mandatory", "opportunistic", "none":
		default:
			return invalid("notify.smtp.tls", "notify.smtp.tls must be mandatory, opportunistic or none, got %q", c.Notify.SMTP.TLS)
		}
	default:
		return invalid("notify.driver", "notify.driver must be log, smtp or ses, got %q", c.Notify.Driver)
	}
	if c.Notify.Driver == "ses" && c.Notify.SES.Region == "" {
		return invalid("notify.ses.region", "notify.ses.region is required for the ses notifier")
	}

	if n := len(c.Secrets.JWTSecret); n > 0 && n < minJWTSecretLength {
		return invalid("FINTRACK_JWT_SECRET", "FINTRACK_JWT_SECRET must be at least %d bytes, got %d", minJWTSecretLength, n)
	}

	timeouts := []struct {
		key string
		d   time.Duration
	}{
		{"http.read_timeout", c.HTTP.ReadTimeout},
		{"http.write_timeout", c.HTTP.WriteTimeout},
		{"http.idle_timeout", c.HTTP.IdleTimeout},
		{"database.connect_timeout", c.Database.ConnectTimeout},
		{"database.query_timeout", c.Database.QueryTimeout},
		{"token.ttl", c.Token.TTL},
		{"otp.ttl", c.OTP.TTL},
		{"otp.delivery_timeout", c.OTP.DeliveryTimeout},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			return invalid(t.key, "%s must be positive, got %s", t.key, t.d)
		}
	}
	return nil
}
