// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	"github.com/Szuhaydv/mapex-backend/internal/config"
	"github.com/Szuhaydv/mapex-backend/internal/logging"
	"github.com/Szuhaydv/mapex-backend/internal/maps"
	"github.com/Szuhaydv/mapex-backend/internal/observability"
	"github.com/Szuhaydv/mapex-backend/internal/web"
)

const shutdownTimeout = 10 * time.Second

// ObservabilityServer is the metrics and health endpoint server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// ServeDeps holds the replaceable dependencies of the serve command.
type ServeDeps struct {
	// Listen opens the HTTP listener.
	Listen func(network, address string) (net.Listener, error)

	// ObservabilityServerFactory creates the metrics server.
	ObservabilityServerFactory func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Hasher overrides the production password hasher.
	Hasher auth.PasswordHasher

	// Ready is called with the HTTP address once the server accepts requests.
	Ready func(addr string)
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the Mapex HTTP API: authentication endpoints, map CRUD under
/api, and the metrics/health server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err //nolint:wrapcheck // coded by config
			}
			logger := logging.SetDefault("mapex", version, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServe serves until ctx is done or a server fails.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.Listen == nil {
		deps.Listen = net.Listen
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readiness observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, readiness, logger)
		}
	}
	if deps.Hasher == nil {
		deps.Hasher = auth.NewPBKDF2Hasher()
	}

	logger.Info("starting mapex",
		"version", version,
		"http_addr", cfg.HTTPAddr,
		"session_store", cfg.SessionStore)

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	authenticator, err := auth.NewAuthenticator(b.credentials, b.sessions, deps.Hasher,
		auth.WithLogger(logger.With("component", "auth")),
		auth.WithStoreTimeout(cfg.StoreTimeout))
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "create authenticator").Wrap(err)
	}
	mapService, err := maps.NewService(b.maps, maps.WithLogger(logger.With("component", "maps")))
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "create map service").Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metrics *observability.Metrics
	var obsServer ObservabilityServer
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, b.ready, logger)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, logger, obsErrCh, "observability")
		metrics = obsServer.Metrics()
	}

	handler, err := web.NewHandler(authenticator, mapService,
		web.WithLogger(logger),
		web.WithMetrics(metrics),
		web.WithCookie(web.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}),
		web.WithAllowedOrigins(cfg.AllowedOrigins))
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("SERVE_FAILED").With("operation", "create http handler").Wrap(err)
	}

	listener, err := deps.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("SERVE_FAILED").With("operation", "listen").With("addr", cfg.HTTPAddr).Wrap(err)
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	httpErrCh := make(chan error, 1)
	go func() {
		defer close(httpErrCh)
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			httpErrCh <- serveErr
		}
	}()

	logger.Info("http server listening", "addr", listener.Addr().String())
	if deps.Ready != nil {
		deps.Ready(listener.Addr().String())
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err, ok := <-httpErrCh:
		if ok && err != nil {
			serveErr = oops.Code("SERVE_FAILED").With("operation", "serve http").Wrap(err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete")
	return serveErr
}

func stopObservability(server ObservabilityServer, logger *slog.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
