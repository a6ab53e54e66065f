// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

// Package notify delivers one-time codes to their recipients.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/fintrack/fintrack/internal/auth"
)

// Subject is the subject line of every verification email.
const Subject = "Finance Manager: Email Verification"

// DefaultFrom is the sender used when none is configured.
const DefaultFrom = "Finance Manager <no-reply@fintrack.local>"

// Driver names accepted by New.
const (
	DriverLog  = "log"
	DriverSMTP = "smtp"
	DriverSES  = "ses"
)

// Body returns the plain-text verification email for code.
func Body(code string) string {
	return fmt.Sprintf("Your OTP code is: %s\n\n"+
		"This code will expire in 5 minutes.\n\n"+
		"If you didn't request this, please ignore this email.", code)
}

// Config selects and configures a notifier.
type Config struct {
	Driver string
	From   string
	SMTP   SMTPConfig
	SES    SESConfig
}

// New builds the notifier named by cfg.Driver.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (auth.Notifier, error) {
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	switch strings.ToLower(cfg.Driver) {
	case "", DriverLog:
		return NewLogNotifier(logger), nil
	case DriverSMTP:
		cfg.SMTP.From = cfg.From
		n, err := NewSMTPNotifier(cfg.SMTP, WithSMTPLogger(logger))
		if err != nil {
			return nil, err
		}
		return n, nil
	case DriverSES:
		cfg.SES.From = cfg.From
		n, err := NewSESNotifier(ctx, cfg.SES, logger)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, oops.Code("NOTIFY_DRIVER_UNKNOWN").With("driver", cfg.Driver).Errorf("unknown notify driver %q", cfg.Driver)
	}
}

// LogNotifier writes codes to the log instead of sending them. It is meant
// for local development only.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendOTP logs the code.
func (n *LogNotifier) SendOTP(ctx context.Context, email, code string) error {
	n.logger.WarnContext(ctx, "otp delivery via log notifier",
		"email", email,
		"code", code,
		"subject", Subject)
	return nil
}
