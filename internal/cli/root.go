// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cli implements the shopctl command tree.

  - serve: run the HTTP server and the purge scheduler.
  - migrate: apply or inspect schema migrations.
  - user: create accounts and change roles.
  - newsletter: print confirm and unsubscribe links.
  - purge: delete expired sessions and action tokens once.

Every command reads the same environment configuration as the server.
*/
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/shopfront/internal/app"
	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/config"
	"github.com/taibuivan/shopfront/internal/platform/constants"
)

// ExitError carries a specific process exit code back to main.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewRootCmd assembles the full command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Shopfront server and administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUserCmd(),
		newNewsletterCmd(),
		newPurgeCmd(),
	)
	return root
}

// newLogger writes JSON logs to the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose || cfg.Debug {
		level = slog.LevelDebug
	}

	var out io.Writer = cmd.ErrOrStderr()
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
}

// environment loads the configuration and a logger for cmd.
func environment(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, exitError(2, "%v", err)
	}
	return cfg, newLogger(cmd, cfg), nil
}

// withApp opens the application for the duration of fn.
func withApp(cmd *cobra.Command, fn func(context context.Context, application *app.App) error) error {
	cfg, logger, err := environment(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.StartupTimeout)
	defer cancel()

	application, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close_failed", slog.Any("error", err))
		}
	}()

	return fn(ctx, application)
}

// describe turns an application error into a one-line CLI message.
func describe(err error) error {
	appError := apperr.As(err)
	if appError == nil {
		return err
	}

	message := appError.Message
	for _, detail := range appError.Details {
		message += "; " + detail.Field + ": " + detail.Message
	}
	return exitError(1, "%s", message)
}
