// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		Create persists a brand-new user account.

		Returns:
		  - error: apperr.Conflict when the folded username is taken
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: dberr.ErrNotFound or database failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByUsername returns the account with the given folded username.

		Returns:
		  - *User: Hydrated entity
		  - error: dberr.ErrNotFound or database failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	// UpdateVerifier replaces only the user's password verifier.
	UpdateVerifier(context context.Context, userID, verifier string) error

	// UpdateRole replaces only the user's role.
	UpdateRole(context context.Context, userID string, role sec.UserRole) error
}

// # Session Data Access

// SessionRepository defines the data access contract for server-side sessions.
type SessionRepository interface {

	/*
		Create inserts session. When revokeOthers is set, every other session
		of the same user is deleted in the same transaction, serialized on the
		user row so two concurrent logins never both survive.

		Returns:
		  - error: dberr.ErrNotFound when the user no longer exists
	*/
	Create(context context.Context, session *Session, revokeOthers bool) error

	/*
		ResetCredentials stores a new password verifier for the session's
		owner, deletes every session of that owner and inserts session. Either
		all three writes land or none do.

		Returns:
		  - error: dberr.ErrNotFound when the user no longer exists
	*/
	ResetCredentials(context context.Context, session *Session, verifier string) error

	// FindByTokenHash returns the session stored under tokenHash.
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	/*
		Rotate moves a session to a new token hash and lifetime, but only if
		it is still stored under oldHash.

		Returns:
		  - bool: false when another request rotated or revoked it first
	*/
	Rotate(context context.Context, oldHash, newHash string, issuedAt, expiresAt time.Time) (bool, error)

	// Delete removes one session. Missing sessions are not an error.
	Delete(context context.Context, tokenHash string) error

	// DeleteAllForUser removes every session of a user.
	DeleteAllForUser(context context.Context, userID string) (int64, error)

	// DeleteExpired removes sessions whose expiry is at or before now.
	DeleteExpired(context context.Context, now time.Time) (int64, error)
}
