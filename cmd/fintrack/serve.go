// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fintrack Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/auth/memory"
	authpg "github.com/fintrack/fintrack/internal/auth/postgres"
	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/logging"
	"github.com/fintrack/fintrack/internal/notify"
	"github.com/fintrack/fintrack/internal/observability"
	"github.com/fintrack/fintrack/internal/store"
	"github.com/fintrack/fintrack/internal/web"
	"github.com/fintrack/fintrack/internal/xdg"
	"github.com/fintrack/fintrack/pkg/errutil"
)

const (
	serviceName     = "fintrack"
	shutdownTimeout = 5 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the JSON API together with the metrics and health endpoints.
Without --config, $XDG_CONFIG_HOME/fintrack/config.yaml is used when present.
Secrets are read from DATABASE_URL, FINTRACK_JWT_SECRET, FINTRACK_SMTP_PASSWORD,
FINTRACK_SES_ACCESS_KEY_ID and FINTRACK_SES_SECRET_ACCESS_KEY.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolveConfigPath(configFile), cmd.Flags())
			if err != nil {
				return oops.With("operation", "load config").Wrap(err)
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

// resolveConfigPath returns explicit, or the XDG config file when it exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if path, ok := xdg.FindConfigFile(); ok {
		return path
	}
	return ""
}

// runServeWithDeps starts the service with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.StoreFactory == nil {
		deps.StoreFactory = openStores
	}
	if deps.NotifierFactory == nil {
		deps.NotifierFactory = notify.New
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, readiness, logger)
		}
	}
	if deps.WebServerFactory == nil {
		deps.WebServerFactory = func(cfg web.ServerConfig, handler http.Handler, logger *slog.Logger) WebServer {
			return web.NewServer(cfg, handler, logger)
		}
	}
	if deps.LogOutput == nil {
		deps.LogOutput = os.Stderr
	}

	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate config").Wrap(err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}
	logger := logging.Setup(serviceName, version, cfg.Log.Format, level, deps.LogOutput)
	slog.SetDefault(logger)

	logger.Info("starting fintrack",
		"http_addr", cfg.HTTP.Addr,
		"store", cfg.Store.Driver,
		"notifier", cfg.Notify.Driver)

	stores, err := deps.StoreFactory(ctx, cfg, logger)
	if err != nil {
		return oops.With("operation", "open store").Wrap(err)
	}
	if stores.Close != nil {
		defer stores.Close()
	}

	notifier, err := deps.NotifierFactory(ctx, notifyConfig(cfg), logger)
	if err != nil {
		return oops.With("operation", "build notifier").Wrap(err)
	}

	tokens, err := newTokenIssuer(cfg, logger)
	if err != nil {
		return err
	}

	serviceOpts := []auth.Option{
		auth.WithLogger(logger),
		auth.WithStoreTimeout(cfg.Database.QueryTimeout),
	}
	authSvc, err := auth.NewAuthService(stores.Accounts, auth.NewArgon2idHasher(), tokens, serviceOpts...)
	if err != nil {
		return oops.With("operation", "build auth service").Wrap(err)
	}
	otpSvc, err := auth.NewOTPService(stores.OTPs, notifier, append(serviceOpts,
		auth.WithOTPExpiry(cfg.OTP.TTL),
		auth.WithDeliveryTimeout(cfg.OTP.DeliveryTimeout),
	)...)
	if err != nil {
		return oops.With("operation", "build otp service").Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.Background(), shutdownTimeout)
	}

	handlerOpts := []web.HandlerOption{
		web.WithHandlerLogger(logger),
		web.WithSessionTTL(tokens.TTL()),
		web.WithSecureCookie(cfg.HTTP.CookieSecure),
	}

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, stores.Ready, logger)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		handlerOpts = append(handlerOpts, web.WithMetrics(obsServer.Metrics()))
	}

	handler := web.NewHandler(authSvc, otpSvc, tokens, handlerOpts...).Routes()
	webServer := deps.WebServerFactory(web.ServerConfig{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, handler, logger)
	webErrChan, err := webServer.Start()
	if err != nil {
		if obsServer != nil {
			stopCtx, stopCancel := shutdownCtx()
			defer stopCancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				logger.Warn("failed to stop observability server during cleanup", "error", stopErr)
			}
		}
		return oops.With("operation", "start web server").Wrap(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Fintrack started on " + webServer.Addr())
	logger.Info("fintrack ready", "http_addr", webServer.Addr())

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err, ok := <-webErrChan:
		if ok && err != nil {
			runErr = oops.Code("WEB_SERVER_FAILED").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	stopCtx, stopCancel := shutdownCtx()
	defer stopCancel()

	if err := webServer.Stop(stopCtx); err != nil {
		logger.Warn("error stopping web server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(stopCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

// newTokenIssuer builds the issuer from FINTRACK_JWT_SECRET, or from a random
// key when the secret is unset.
func newTokenIssuer(cfg *config.Config, logger *slog.Logger) (*auth.TokenIssuer, error) {
	key := []byte(cfg.Secrets.JWTSecret)
	if len(key) == 0 {
		generated, err := auth.GenerateSigningKey()
		if err != nil {
			return nil, oops.With("operation", "generate signing key").Wrap(err)
		}
		key = generated
		logger.Warn("FINTRACK_JWT_SECRET is not set; using a random signing key, sessions will not survive a restart")
	}

	tokens, err := auth.NewTokenIssuer(key,
		auth.WithTokenIssuer(cfg.Token.Issuer),
		auth.WithTokenExpiry(cfg.Token.TTL))
	if err != nil {
		return nil, oops.With("operation", "build token issuer").Wrap(err)
	}
	return tokens, nil
}

func notifyConfig(cfg *config.Config) notify.Config {
	return notify.Config{
		Driver: cfg.Notify.Driver,
		From:   cfg.Notify.From,
		SMTP: notify.SMTPConfig{
			Host:     cfg.Notify.SMTP.Host,
			Port:     cfg.Notify.SMTP.Port,
			Username: cfg.Notify.SMTP.Username,
			Password: cfg.Secrets.SMTPPassword,
			TLS:      cfg.Notify.SMTP.TLS,
			Retries:  cfg.Notify.SMTP.Retries,
		},
		SES: notify.SESConfig{
			Region:          cfg.Notify.SES.Region,
			Endpoint:        cfg.Notify.SES.Endpoint,
			AccessKeyID:     cfg.Secrets.SESAccessKeyID,
			SecretAccessKey: cfg.Secrets.SESSecretAccessKey,
		},
	}
}

// openStores builds the repositories for cfg.Store.Driver.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	if cfg.Store.Driver == config.StoreMemory {
		logger.Warn("using in-memory store; accounts and codes are lost on exit")
		return &Stores{
			Accounts: memory.NewAccountRepository(),
			OTPs:     memory.NewOTPRepository(),
		}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg.Secrets.DatabaseURL, logger); err != nil {
			return nil, err
		}
	}

	pool, err := store.Connect(ctx, cfg.Secrets.DatabaseURL, store.PoolOptions{
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		ConnectRetries: cfg.Database.ConnectRetries,
		Logger:         logger,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // store.Connect returns coded errors
	}
	logger.Info("connected to database")

	return &Stores{
		Accounts: authpg.NewAccountRepository(pool),
		OTPs:     authpg.NewOTPRepository(pool),
		Ready:    pool.Ping,
		Close:    pool.Close,
	}, nil
}

func migrateUp(databaseURL string, logger *slog.Logger) error {
	migrator, err := newMigrator(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			errutil.LogError(logger, "failed to close migrator", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").Wrap(err)
	}
	version, _, err := migrator.Version()
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").Wrap(err)
	}
	logger.Info("database schema up to date", "version", version)
	return nil
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when an error arrives, the channel closes, or ctx is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
