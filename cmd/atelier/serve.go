// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atelier Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/atelier-dev/atelier/internal/auth"
	authpg "github.com/atelier-dev/atelier/internal/auth/postgres"
	"github.com/atelier-dev/atelier/internal/config"
	"github.com/atelier-dev/atelier/internal/httpapi"
	"github.com/atelier-dev/atelier/internal/logging"
	"github.com/atelier-dev/atelier/internal/observability"
	"github.com/atelier-dev/atelier/internal/project"
	projectpg "github.com/atelier-dev/atelier/internal/project/postgres"
	"github.com/atelier-dev/atelier/internal/store"
	"github.com/atelier-dev/atelier/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand with all flags configured.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server plus the observability endpoint.
Configuration comes from defaults, then the optional config file, then
flags; DATABASE_URL from the environment wins for the database DSN.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	// Flag names match the config keys so the posflag provider lines up.
	cmd.Flags().String("addr", config.DefaultAddr, "API listen address")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection string")
	cmd.Flags().String("log-format", config.DefaultLogFormat, "log format (json or text)")
	cmd.Flags().Duration("session-idle-timeout", config.DefaultSessionIdleTimeout, "sliding session inactivity window")
	cmd.Flags().Duration("session-sweep-interval", config.DefaultSessionSweepInterval, "interval between expired session sweeps")
	cmd.Flags().Int("login-max-attempts", config.DefaultLoginMaxAttempts, "auth attempts allowed per client per window")
	cmd.Flags().Duration("login-window", config.DefaultLoginWindow, "rate limit counting window")

	return cmd
}

// runServe wires the services together and runs until a signal arrives.
func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("atelier", version, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	slog.Info("starting api server",
		"addr", cfg.Addr,
		"metrics_addr", cfg.MetricsAddr,
		"session_idle_timeout", cfg.SessionIdleTimeout,
		"log_format", cfg.LogFormat,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	slog.Info("database connected")

	obsServer := observability.NewServer(cfg.MetricsAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})

	limiter := auth.NewRateLimiterWithRegistry(auth.RateLimiterConfig{
		MaxAttempts: cfg.LoginMaxAttempts,
		Window:      cfg.LoginWindow,
	}, obsServer.Registry())
	defer limiter.Close()

	authService := auth.NewService(
		authpg.NewAccountRepository(pool),
		authpg.NewSessionRepository(pool),
		auth.NewArgon2idHasher(),
		cfg.SessionIdleTimeout,
	)
	projectService := project.NewService(projectpg.NewProjectRepository(pool))

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:     authService,
		Projects: projectService,
		Limiter:  limiter,
		Pinger:   pool,
		Metrics:  obsServer.Metrics(),
	})

	var obsErrCh <-chan error
	if cfg.MetricsAddr != "" {
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return err
		}
	}

	// Storage reclamation only; expiry is enforced lazily on access.
	go sweepSessions(ctx, authService, obsServer.Metrics(), cfg.SessionSweepInterval)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			serveErrCh <- serveErr
		}
	}()

	slog.Info("api server listening", "addr", cfg.Addr)

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr := <-serveErrCh:
		errutil.LogError(slog.Default(), "api server failed", serveErr)
		return serveErr
	case obsErr := <-obsErrCh:
		if obsErr != nil {
			errutil.LogError(slog.Default(), "observability server failed", obsErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("error shutting down api server", "error", err)
	}
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// sweepSessions periodically deletes expired session rows.
func sweepSessions(ctx context.Context, authService *auth.Service, metrics *observability.Metrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := authService.SweepExpired(ctx)
			if err != nil {
				errutil.LogError(slog.Default(), "session sweep failed", err)
				continue
			}
			if count > 0 {
				metrics.SessionsSweptTotal.Add(float64(count))
				slog.Info("expired sessions swept", "count", count)
			}
		}
	}
}
