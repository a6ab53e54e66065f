// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/wneessen/go-mail"
)

// TLS policies accepted in SMTPConfig.TLS.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// SMTPConfig configures SMTPNotifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      string
	From     string
	// Retries is the number of extra attempts after a temporary failure.
	Retries uint64
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier sends codes through an SMTP relay.
type SMTPNotifier struct {
	sender    mailSender
	from      string
	retries   uint64
	retryBase time.Duration
	logger    *slog.Logger
}

// SMTPOption configures an SMTPNotifier.
type SMTPOption func(*SMTPNotifier)

// WithSMTPLogger sets the logger. A nil logger is ignored.
func WithSMTPLogger(logger *slog.Logger) SMTPOption {
	return func(n *SMTPNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// withSender replaces the SMTP client.
func withSender(s mailSender) SMTPOption {
	return func(n *SMTPNotifier) { n.sender = s }
}

func withRetryBase(d time.Duration) SMTPOption {
	return func(n *SMTPNotifier) { n.retryBase = d }
}

// NewSMTPNotifier creates an SMTPNotifier. Authentication is enabled when a
// username is set.
func NewSMTPNotifier(cfg SMTPConfig, opts ...SMTPOption) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}

	n := &SMTPNotifier{
		from:      cfg.From,
		retries:   cfg.Retries,
		retryBase: 500 * time.Millisecond,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.sender != nil {
		return n, nil
	}

	policy, err := tlsPolicy(cfg.TLS)
	if err != nil {
		return nil, err
	}
	clientOpts := []mail.Option{mail.WithTLSPolicy(policy)}
	if cfg.Port > 0 {
		clientOpts = append(clientOpts, mail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").With("host", cfg.Host).Wrap(err)
	}
	n.sender = client
	return n, nil
}

func tlsPolicy(name string) (mail.TLSPolicy, error) {
	switch strings.ToLower(name) {
	case "", TLSMandatory:
		return mail.TLSMandatory, nil
	case TLSOpportunistic:
		return mail.TLSOpportunistic, nil
	case TLSNone:
		return mail.NoTLS, nil
	default:
		return mail.TLSMandatory, oops.Code("NOTIFY_CONFIG_INVALID").With("tls", name).Errorf("unknown smtp tls policy %q", name)
	}
}

// SendOTP emails code to email. Temporary SMTP failures are retried with
// exponential backoff until ctx is done.
func (n *SMTPNotifier) SendOTP(ctx context.Context, email, code string) error {
	msg, err := n.message(email, code)
	if err != nil {
		return err
	}

	attempt := 0
	backoff := retry.WithMaxRetries(n.retries, retry.NewExponential(n.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		sendErr := n.sender.DialAndSendWithContext(ctx, msg)
		if sendErr == nil {
			return nil
		}
		var smtpErr *mail.SendError
		if errors.As(sendErr, &smtpErr) && !smtpErr.IsTemp() {
			return sendErr
		}
		n.logger.WarnContext(ctx, "smtp send failed", "attempt", attempt, "error", sendErr)
		return retry.RetryableError(sendErr)
	})
	if err != nil {
		return oops.Code("NOTIFY_SMTP_FAILED").
			With("email", email).
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}

func (n *SMTPNotifier) message(email, code string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, oops.Code("NOTIFY_MESSAGE_INVALID").With("from", n.from).Wrap(err)
	}
	if err := msg.To(email); err != nil {
		return nil, oops.Code("NOTIFY_MESSAGE_INVALID").With("email", email).Wrap(err)
	}
	msg.Subject(Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, Body(code))
	return msg, nil
}
