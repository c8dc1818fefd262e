// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package actiontoken

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
)

// SQLRepository implements [Repository] on the relational store.
type SQLRepository struct {
	db *dbx.DB
}

// NewSQLRepository constructs a new [SQLRepository].
func NewSQLRepository(db *dbx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts record.
func (repository *SQLRepository) Create(context context.Context, record *Record) error {
	query := `
		INSERT INTO action_tokens (token_hash, subject_user_id, action, expires_at)
		VALUES (?, ?, ?, ?)`

	_, err := repository.db.ExecContext(context, query,
		record.TokenHash, record.SubjectUserID, string(record.Action), dbx.Millis(record.ExpiresAt),
	)
	if err != nil {
		return dberr.Wrap(err, "create_action_token")
	}
	return nil
}

// Find loads the record for tokenHash.
func (repository *SQLRepository) Find(context context.Context, tokenHash string) (*Record, error) {
	query := `
		SELECT token_hash, subject_user_id, action, expires_at, consumed_at
		FROM action_tokens
		WHERE token_hash = ?`

	var (
		record     Record
		action     string
		expiresAt  int64
		consumedAt sql.NullInt64
	)
	err := repository.db.QueryRowContext(context, query, tokenHash).Scan(
		&record.TokenHash, &record.SubjectUserID, &action, &expiresAt, &consumedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_action_token")
	}

	record.Action = Action(action)
	record.ExpiresAt = dbx.FromMillis(expiresAt)
	if consumedAt.Valid {
		at := dbx.FromMillis(consumedAt.Int64)
		record.ConsumedAt = &at
	}
	return &record, nil
}

// Consume marks the token used in one conditional statement, on q when given.
func (repository *SQLRepository) Consume(context context.Context, q dbx.DBTX, tokenHash string, action Action, subject string, now time.Time) (bool, error) {
	if q == nil {
		q = repository.db
	}

	query := `
		UPDATE action_tokens
		SET consumed_at = ?
		WHERE token_hash = ?
		  AND consumed_at IS NULL
		  AND action = ?
		  AND subject_user_id = ?
		  AND expires_at > ?`

	millis := dbx.Millis(now)
	result, err := q.ExecContext(context, query, millis, tokenHash, string(action), subject, millis)
	if err != nil {
		return false, fmt.Errorf("sql_consume_action_token_failed: %w", err)
	}
	return dbx.ExpectOne(result)
}

// DeleteExpired removes records that expired before the cutoff.
func (repository *SQLRepository) DeleteExpired(context context.Context, before time.Time) (int64, error) {
	result, err := repository.db.ExecContext(context,
		`DELETE FROM action_tokens WHERE expires_at <= ?`, dbx.Millis(before))
	if err != nil {
		return 0, fmt.Errorf("sql_purge_action_tokens_failed: %w", err)
	}
	return result.RowsAffected()
}
