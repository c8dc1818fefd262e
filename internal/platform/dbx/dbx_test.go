// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dbx_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/taibuivan/shopfront/internal/platform/dbx"
)

func setupDB(t *testing.T) *dbx.DB {
	t.Helper()

	raw, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	db := dbx.New(raw, dbx.DialectSQLite)
	_, err = db.ExecContext(context.Background(), `CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *dbx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

/*
TestRebind covers placeholder rewriting per dialect.
*/
func TestRebind(t *testing.T) {
	query := "SELECT * FROM t WHERE a = ? AND b LIKE '%?%' AND c = ?"

	assert.Equal(t, query, dbx.Rebind(dbx.DialectSQLite, query))
	assert.Equal(t,
		"SELECT * FROM t WHERE a = $1 AND b LIKE '%?%' AND c = $2",
		dbx.Rebind(dbx.DialectPostgres, query),
	)
}

/*
TestWithTx_CommitAndRollback verifies commit on success and rollback on error or panic.
*/
func TestWithTx_CommitAndRollback(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	// 1. Success commits
	err := dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t (v) VALUES (?)`, "a")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, db))

	// 2. Error rolls back
	boom := errors.New("boom")
	err = dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO t (v) VALUES (?)`, "b"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, countRows(t, db))

	// 3. Panic rolls back and propagates
	assert.Panics(t, func() {
		_ = dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO t (v) VALUES (?)`, "c")
			panic("kaboom")
		})
	})
	assert.Equal(t, 1, countRows(t, db))
}

/*
TestExpectOne reports conditional update outcomes.
*/
func TestExpectOne(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO t (v) VALUES (?)`, "x")
	require.NoError(t, err)

	result, err := db.ExecContext(ctx, `UPDATE t SET v = ? WHERE v = ?`, "y", "x")
	require.NoError(t, err)
	ok, err := dbx.ExpectOne(result)
	require.NoError(t, err)
	assert.True(t, ok)

	result, err = db.ExecContext(ctx, `UPDATE t SET v = ? WHERE v = ?`, "z", "x")
	require.NoError(t, err)
	ok, err = dbx.ExpectOne(result)
	require.NoError(t, err)
	assert.False(t, ok)
}
