// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package database selects and opens the relational store named by DATABASE_URL.
package database

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/platform/postgres"
	"github.com/taibuivan/shopfront/internal/platform/sqlite"
)

// Open returns a dialect-aware handle for databaseURL. URLs starting with
// postgres:// or postgresql:// use PostgreSQL; anything else is a SQLite path.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*dbx.DB, error) {
	if dialectOf(databaseURL) == dbx.DialectPostgres {
		db, err := postgres.Open(ctx, databaseURL, logger)
		if err != nil {
			return nil, err
		}
		return dbx.New(db, dbx.DialectPostgres), nil
	}

	db, err := sqlite.Open(ctx, databaseURL, logger)
	if err != nil {
		return nil, err
	}
	return dbx.New(db, dbx.DialectSQLite), nil
}

// dialectOf infers the dialect from a DATABASE_URL value.
func dialectOf(databaseURL string) dbx.Dialect {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return dbx.DialectPostgres
	}
	return dbx.DialectSQLite
}

// Ping checks the handle with the dialect's own timeout policy.
func Ping(ctx context.Context, db *dbx.DB) error {
	if db.Dialect() == dbx.DialectPostgres {
		return postgres.Ping(ctx, db.DB)
	}
	return sqlite.Ping(ctx, db.DB)
}
