// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taibuivan/shopfront/internal/api"
	"github.com/taibuivan/shopfront/internal/app"
	"github.com/taibuivan/shopfront/internal/platform/constants"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

// runServe starts the server and blocks until SIGINT or SIGTERM.
//
// # Startup Sequence
//  1. Load configuration and build the logger.
//  2. Open the database (and Redis when configured) and migrate.
//  3. Start the purge scheduler.
//  4. Serve until a signal arrives, then drain in-flight requests.
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := environment(cmd)
	if err != nil {
		return err
	}
	logger.Info("service_initializing",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("version", constants.AppVersion),
	)

	startupCtx, cancelStartup := context.WithTimeout(cmd.Context(), constants.StartupTimeout)
	defer cancelStartup()

	application, err := app.Open(startupCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close_failed", slog.Any("error", err))
		}
	}()

	// ── Housekeeping ──────────────────────────────────────────────────────
	runner, err := application.Scheduler()
	if err != nil {
		return exitError(2, "%v", err)
	}
	runner.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		runner.Stop(stopCtx)
	}()

	// ── HTTP Server ───────────────────────────────────────────────────────
	server := api.NewServer(cfg, logger, application.Handler())

	signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("shutdown_signal_received")
	case err := <-serverErr:
		logger.Error("server_failed", slog.Any("error", err))
		return err
	}

	logger.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		logger.Error("shutdown_failed", slog.Any("error", err))
		return err
	}
	logger.Info("server_stopped")
	return nil
}
