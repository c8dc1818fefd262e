// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dbtest opens migrated throwaway databases for package tests.
//
// A fresh SQLite file under t.TempDir() is used by default. Setting
// TEST_DATABASE_URL runs the same tests against PostgreSQL instead; the
// caller is then responsible for pointing it at a disposable database.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/platform/database"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/platform/migration"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// Logger discards output so test runs stay quiet.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// Open returns a migrated database closed automatically at test end.
func Open(t *testing.T) *dbx.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		url = "file:" + filepath.Join(t.TempDir(), "shopfront.db")
	}

	db, err := database.Open(context.Background(), url, Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migration.RunUp(db, Logger()))

	// A shared PostgreSQL database starts every test empty.
	if db.Dialect() == dbx.DialectPostgres {
		_, err := db.ExecContext(context.Background(), truncateAll)
		require.NoError(t, err)
	}
	return db
}

const truncateAll = `TRUNCATE users, sessions, action_tokens, products, cart_items, payment_methods,
	orders, order_items, purchases, reviews, newsletter_subscriptions RESTART IDENTITY CASCADE`

// FastHasher returns a password hasher cheap enough for unit tests.
func FastHasher(t *testing.T) *sec.PasswordHasher {
	t.Helper()

	hasher, err := sec.NewPasswordHasher(sec.HasherConfig{Algorithm: sec.KDFArgon2id, Cost: 1, MemoryKiB: 64, Threads: 1})
	require.NoError(t, err)
	return hasher
}

// SeedUser inserts a bare user row for tests that only need a foreign key target.
func SeedUser(t *testing.T, db *dbx.DB, id, username string, role sec.UserRole) sec.Principal {
	t.Helper()

	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, username, verifier, role, created_at, updated_at) VALUES (?, ?, 'x', ?, 0, 0)`,
		id, username, string(role))
	require.NoError(t, err)
	return sec.Principal{UserID: id, Username: username, Role: role}
}

// SeedProduct inserts a live product and returns its ID.
func SeedProduct(t *testing.T, db *dbx.DB, name string, priceCents, stock int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO products (name, slug, description, price_cents, stock, created_at, updated_at)
		 VALUES (?, ?, '', ?, ?, 0, 0) RETURNING id`,
		name, name, priceCents, stock).Scan(&id)
	require.NoError(t, err)
	return id
}
