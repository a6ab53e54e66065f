// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/notify"
	"github.com/fintrack/fintrack/internal/observability"
	"github.com/fintrack/fintrack/internal/web"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values use their default implementations.
type ServeDeps struct {
	// StoreFactory builds the repositories named by cfg.Store.Driver.
	// Default: openStores
	StoreFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error)

	// NotifierFactory builds the OTP notifier.
	// Default: notify.New
	NotifierFactory func(ctx context.Context, cfg notify.Config, logger *slog.Logger) (auth.Notifier, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// WebServerFactory creates the API server.
	// Default: web.NewServer
	WebServerFactory func(cfg web.ServerConfig, handler http.Handler, logger *slog.Logger) WebServer

	// LogOutput receives log output. Default: os.Stderr
	LogOutput io.Writer
}

// Stores holds the repositories and their lifecycle hooks.
type Stores struct {
	Accounts auth.AccountRepository
	OTPs     auth.OTPRepository
	// Ready reports database health; nil means always ready.
	Ready observability.ReadinessChecker
	// Close releases the store; may be nil.
	Close func()
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// WebServer interface wraps the methods used from web.Server.
type WebServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
