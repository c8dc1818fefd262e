// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package dbx provides the small database/sql abstractions shared by repositories.

Repositories are written once with "?" placeholders and run unchanged on
SQLite and PostgreSQL: the [DB] and transaction handles rebind placeholders
for the active dialect before every statement.

Typical use:

	err := dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
	    _, err := tx.ExecContext(ctx, "UPDATE products SET stock = stock - ? WHERE id = ?", qty, id)
	    return err
	})
*/
package dbx

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect identifies the SQL engine behind a [DB].
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DBTX is the subset of database/sql used by repositories.
// Both [*DB] and the handle passed to [WithTx] satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// # Database Handle

// DB wraps a [*sql.DB] with its dialect.
type DB struct {
	*sql.DB
	dialect Dialect
}

// New binds db to a dialect.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, dialect: dialect}
}

// Dialect returns the engine this handle talks to.
func (db *DB) Dialect() Dialect { return db.dialect }

// ExecContext rebinds query and executes it.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, Rebind(db.dialect, query), args...)
}

// QueryContext rebinds query and runs it.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, Rebind(db.dialect, query), args...)
}

// QueryRowContext rebinds query and runs it for a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, Rebind(db.dialect, query), args...)
}

// # Transactions

type tx struct {
	*sql.Tx
	dialect Dialect
}

func (t *tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.Tx.ExecContext(ctx, Rebind(t.dialect, query), args...)
}

func (t *tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.Tx.QueryContext(ctx, Rebind(t.dialect, query), args...)
}

func (t *tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.Tx.QueryRowContext(ctx, Rebind(t.dialect, query), args...)
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error or panic. Panics are rethrown.
func WithTx(ctx context.Context, db *DB, fn func(ctx context.Context, tx DBTX) error) (err error) {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
			return
		}
		err = sqlTx.Commit()
	}()

	err = fn(ctx, &tx{Tx: sqlTx, dialect: db.dialect})
	return err
}

// # Placeholders

// Rebind rewrites "?" placeholders to "$n" for PostgreSQL. Question marks
// inside single-quoted literals are left alone.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var builder strings.Builder
	builder.Grow(len(query) + 8)

	position := 0
	inLiteral := false
	for _, char := range query {
		switch {
		case char == '\'':
			inLiteral = !inLiteral
			builder.WriteRune(char)
		case char == '?' && !inLiteral:
			position++
			builder.WriteByte('$')
			builder.WriteString(strconv.Itoa(position))
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}

// # Helpers

// ExpectOne reports whether a conditional update touched exactly one row.
func ExpectOne(result sql.Result) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Millis converts t to the Unix-millisecond integer stored in timestamp columns.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts a stored timestamp back to UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
