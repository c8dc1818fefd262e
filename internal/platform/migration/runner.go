// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration provides a thin wrapper around golang-migrate for
// running the embedded schema migrations.
//
// # Architecture
//
// This package belongs to the Infrastructure layer. It enforces schema
// idempotency during application startup, ensuring the database is always
// in the correct state before traffic is served.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/migrations"
)

// RunUp applies all pending UP migrations for the handle's dialect.
//
// # Parameters
//   - db: The shared application handle. It is not closed by this function.
//   - logger: Structured logger for migration events.
func RunUp(db *dbx.DB, logger *slog.Logger) error {
	migrator, err := newMigrator(db, logger)
	if err != nil {
		return err
	}

	currentVersion, isDirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to get current version: %w", err)
	}

	if isDirty {
		return fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", currentVersion)
	}

	logger.Info("migration_started",
		slog.String("dialect", string(db.Dialect())),
		slog.Int("current_version", int(currentVersion)),
	)

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migration_already_up_to_date")
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}

	newVersion, _, _ := migrator.Version()
	logger.Info("migration_successful",
		slog.Int("from_version", int(currentVersion)),
		slog.Int("to_version", int(newVersion)),
	)

	return nil
}

// Version reports the applied schema version and dirty flag.
func Version(db *dbx.DB, logger *slog.Logger) (uint, bool, error) {
	migrator, err := newMigrator(db, logger)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrator binds the embedded source for the dialect to the open handle.
// The migrator is never closed: its database driver would close the shared pool.
func newMigrator(db *dbx.DB, logger *slog.Logger) (*migrate.Migrate, error) {
	sub, err := fs.Sub(migrations.FS, string(db.Dialect()))
	if err != nil {
		return nil, fmt.Errorf("migration: locate %s scripts: %w", db.Dialect(), err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("migration: open embedded source: %w", err)
	}

	var driver database.Driver
	switch db.Dialect() {
	case dbx.DialectPostgres:
		driver, err = pgxmigrate.WithInstance(db.DB, &pgxmigrate.Config{})
	default:
		driver, err = sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("migration: init %s driver: %w", db.Dialect(), err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, string(db.Dialect()), driver)
	if err != nil {
		return nil, fmt.Errorf("migration: failed to initialize: %w", err)
	}

	migrator.Log = &migrateLogger{logger: logger}
	return migrator, nil
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
