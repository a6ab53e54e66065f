// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package auth

import (
	"log/slog"
	"time"
)

// Default timeouts for calls leaving the process.
const (
	DefaultStoreTimeout    = 3 * time.Second
	DefaultDeliveryTimeout = 10 * time.Second
)

type options struct {
	logger          *slog.Logger
	now             func() time.Time
	storeTimeout    time.Duration
	deliveryTimeout time.Duration
	otpTTL          time.Duration
	generateCode    func() (string, error)
}

func defaultOptions() options {
	return options{
		logger:          slog.Default(),
		now:             time.Now,
		storeTimeout:    DefaultStoreTimeout,
		deliveryTimeout: DefaultDeliveryTimeout,
		otpTTL:          DefaultOTPExpiry,
		generateCode:    GenerateOTPCode,
	}
}

// Option configures Service and OTPService.
type Option func(*options)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithStoreTimeout bounds every repository call. Non-positive values keep the default.
func WithStoreTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.storeTimeout = d
		}
	}
}

// WithDeliveryTimeout bounds every notifier call. Non-positive values keep the default.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.deliveryTimeout = d
		}
	}
}

// WithOTPExpiry sets the lifetime of issued codes. Non-positive values keep the default.
func WithOTPExpiry(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.otpTTL = d
		}
	}
}

// WithCodeGenerator overrides code generation.
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(o *options) {
		if generate != nil {
			o.generateCode = generate
		}
	}
}
