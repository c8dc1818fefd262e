// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	stdcontext "context"
	"fmt"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// # User Repository

// SQLUserRepository implements [UserRepository] over SQLite or PostgreSQL.
type SQLUserRepository struct {
	db *dbx.DB
}

// NewUserRepository creates a SQL-backed user repository.
func NewUserRepository(db *dbx.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

const userColumns = `id, username, verifier, role, created_at, updated_at`

/*
Create persists a new user record.

Returns:
  - error: apperr.Conflict on a duplicate folded username
*/
func (repository *SQLUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (id, username, verifier, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := repository.db.ExecContext(context, query,
		user.ID,
		user.Username,
		user.Verifier,
		string(user.Role),
		dbx.Millis(user.CreatedAt),
		dbx.Millis(user.UpdatedAt),
	)
	if err != nil {
		return dberr.Wrap(err, "sql_user_repo_create_failed")
	}

	return nil
}

// FindByID retrieves a user by primary key.
func (repository *SQLUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return repository.findOne(context, query, id, "sql_user_repo_find_by_id_failed")
}

// FindByUsername retrieves a user by folded username.
func (repository *SQLUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return repository.findOne(context, query, username, "sql_user_repo_find_by_username_failed")
}

func (repository *SQLUserRepository) findOne(context context.Context, query, arg, action string) (*User, error) {
	var (
		user      User
		role      string
		createdAt int64
		updatedAt int64
	)

	err := repository.db.QueryRowContext(context, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Verifier,
		&role,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}

	user.Role = sec.UserRole(role)
	user.CreatedAt = dbx.FromMillis(createdAt)
	user.UpdatedAt = dbx.FromMillis(updatedAt)
	return &user, nil
}

// UpdateVerifier replaces the password verifier.
func (repository *SQLUserRepository) UpdateVerifier(context context.Context, userID, verifier string) error {
	const query = `UPDATE users SET verifier = ?, updated_at = ? WHERE id = ?`
	return repository.updateOne(context, query, "sql_user_repo_update_verifier_failed", verifier, dbx.Millis(time.Now()), userID)
}

// UpdateRole replaces the role.
func (repository *SQLUserRepository) UpdateRole(context context.Context, userID string, role sec.UserRole) error {
	const query = `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`
	return repository.updateOne(context, query, "sql_user_repo_update_role_failed", string(role), dbx.Millis(time.Now()), userID)
}

func (repository *SQLUserRepository) updateOne(context context.Context, query, action string, args ...any) error {
	result, err := repository.db.ExecContext(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	ok, err := dbx.ExpectOne(result)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if !ok {
		return dberr.ErrNotFound
	}
	return nil
}

// # Session Repository

// SQLSessionRepository implements [SessionRepository].
type SQLSessionRepository struct {
	db *dbx.DB
}

// NewSessionRepository creates a SQL-backed session repository.
func NewSessionRepository(db *dbx.DB) *SQLSessionRepository {
	return &SQLSessionRepository{db: db}
}

/*
Create inserts a session, optionally revoking the user's other sessions.

Description: The user row is touched first. On PostgreSQL the UPDATE takes
a row lock that serializes concurrent logins of the same user; SQLite
transactions are opened with BEGIN IMMEDIATE and are serialized already.
*/
func (repository *SQLSessionRepository) Create(context context.Context, session *Session, revokeOthers bool) error {
	return dbx.WithTx(context, repository.db, func(context stdcontext.Context, tx dbx.DBTX) error {

		// ── 1. Lock the owner ─────────────────────────────────────────────
		if err := lockUser(context, tx, `UPDATE users SET updated_at = updated_at WHERE id = ?`, session.UserID); err != nil {
			return err
		}

		// ── 2. Single-session policy ──────────────────────────────────────
		if revokeOthers {
			if _, err := tx.ExecContext(context, `DELETE FROM sessions WHERE user_id = ?`, session.UserID); err != nil {
				return fmt.Errorf("sql_session_repo_revoke_others_failed: %w", err)
			}
		}

		// ── 3. Insert ─────────────────────────────────────────────────────
		return insertSession(context, tx, session)
	})
}

/*
ResetCredentials replaces the owner's verifier, deletes all of their
sessions and inserts session, all in one transaction.

Description: The verifier UPDATE doubles as the owner row lock taken by
[SQLSessionRepository.Create].
*/
func (repository *SQLSessionRepository) ResetCredentials(context context.Context, session *Session, verifier string) error {
	return dbx.WithTx(context, repository.db, func(context stdcontext.Context, tx dbx.DBTX) error {
		const update = `UPDATE users SET verifier = ?, updated_at = ? WHERE id = ?`
		if err := lockUser(context, tx, update, verifier, dbx.Millis(session.IssuedAt), session.UserID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(context, `DELETE FROM sessions WHERE user_id = ?`, session.UserID); err != nil {
			return fmt.Errorf("sql_session_repo_revoke_all_failed: %w", err)
		}

		return insertSession(context, tx, session)
	})
}

// lockUser runs an UPDATE that must touch exactly the owner's row.
func lockUser(context context.Context, tx dbx.DBTX, query string, args ...any) error {
	result, err := tx.ExecContext(context, query, args...)
	if err != nil {
		return fmt.Errorf("sql_session_repo_lock_user_failed: %w", err)
	}
	ok, err := dbx.ExpectOne(result)
	if err != nil {
		return fmt.Errorf("sql_session_repo_lock_user_failed: %w", err)
	}
	if !ok {
		return dberr.ErrNotFound
	}
	return nil
}

func insertSession(context context.Context, tx dbx.DBTX, session *Session) error {
	const insert = `
		INSERT INTO sessions (token_hash, user_id, issued_at, expires_at, fingerprint, csrf_token)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(context, insert,
		session.TokenHash,
		session.UserID,
		dbx.Millis(session.IssuedAt),
		dbx.Millis(session.ExpiresAt),
		session.Fingerprint,
		session.CSRFToken,
	)
	if err != nil {
		return fmt.Errorf("sql_session_repo_insert_failed: %w", err)
	}
	return nil
}

// FindByTokenHash returns the stored session, expired or not.
func (repository *SQLSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	const query = `
		SELECT token_hash, user_id, issued_at, expires_at, fingerprint, csrf_token
		FROM sessions
		WHERE token_hash = ?`

	var (
		session   Session
		issuedAt  int64
		expiresAt int64
	)
	err := repository.db.QueryRowContext(context, query, tokenHash).Scan(
		&session.TokenHash,
		&session.UserID,
		&issuedAt,
		&expiresAt,
		&session.Fingerprint,
		&session.CSRFToken,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "sql_session_repo_find_failed")
	}

	session.IssuedAt = dbx.FromMillis(issuedAt)
	session.ExpiresAt = dbx.FromMillis(expiresAt)
	return &session, nil
}

// Rotate re-keys a session with a conditional update on the old hash.
func (repository *SQLSessionRepository) Rotate(context context.Context, oldHash, newHash string, issuedAt, expiresAt time.Time) (bool, error) {
	const query = `
		UPDATE sessions
		SET token_hash = ?, issued_at = ?, expires_at = ?
		WHERE token_hash = ?`

	result, err := repository.db.ExecContext(context, query, newHash, dbx.Millis(issuedAt), dbx.Millis(expiresAt), oldHash)
	if err != nil {
		return false, fmt.Errorf("sql_session_repo_rotate_failed: %w", err)
	}
	return dbx.ExpectOne(result)
}

// Delete removes a single session; deleting a missing session succeeds.
func (repository *SQLSessionRepository) Delete(context context.Context, tokenHash string) error {
	if _, err := repository.db.ExecContext(context, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash); err != nil {
		return fmt.Errorf("sql_session_repo_delete_failed: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every session of a user.
func (repository *SQLSessionRepository) DeleteAllForUser(context context.Context, userID string) (int64, error) {
	result, err := repository.db.ExecContext(context, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("sql_session_repo_delete_all_failed: %w", err)
	}
	return result.RowsAffected()
}

// DeleteExpired removes sessions that reached their expiry.
func (repository *SQLSessionRepository) DeleteExpired(context context.Context, now time.Time) (int64, error) {
	result, err := repository.db.ExecContext(context, `DELETE FROM sessions WHERE expires_at <= ?`, dbx.Millis(now))
	if err != nil {
		return 0, fmt.Errorf("sql_session_repo_delete_expired_failed: %w", err)
	}
	return result.RowsAffected()
}
