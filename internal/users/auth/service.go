// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/sec"
	"github.com/taibuivan/shopfront/pkg/uuid"
)

// Service implements the credential and login use cases.
//
// # Review Process
//
// This service is critical for security. Changes to hashing, login or
// session revocation must keep InvalidCredentials indistinguishable for
// unknown users and wrong passwords.
type Service struct {
	users    UserRepository
	sessions *SessionStore
	hasher   *sec.PasswordHasher
	policy   PasswordPolicy
	now      Clock
}

// NewService constructs a new [Service] with its dependencies.
func NewService(users UserRepository, sessions *SessionStore, hasher *sec.PasswordHasher, policy PasswordPolicy) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		policy:   policy,
		now:      sessions.now,
	}
}

// LoginResult carries a fresh session for the transport layer.
type LoginResult struct {
	User    *User
	Session IssuedSession
}

// # Registration Flow

/*
Register validates, hashes, and persists a new regular account.

Parameters:
  - context: context.Context
  - username: string (Raw input, folded before use)
  - password: string

Returns:
  - *User: Created entity
  - error: Validation, Conflict or storage errors
*/
func (service *Service) Register(context context.Context, username, password string) (*User, error) {
	return service.create(context, username, password, sec.RoleRegular)
}

// CreateUser registers an account with an explicit role. Operator tooling only.
func (service *Service) CreateUser(context context.Context, username, password string, role sec.UserRole) (*User, error) {
	return service.create(context, username, password, role)
}

func (service *Service) create(context context.Context, rawUsername, password string, role sec.UserRole) (*User, error) {
	username := FoldUsername(rawUsername)

	if err := checkUsername(username); err != nil {
		return nil, err
	}
	if err := service.policy.Check(username, password); err != nil {
		return nil, err
	}

	verifier, err := service.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	now := service.now()
	user := &User{
		ID:        uuid.New(),
		Username:  username,
		Verifier:  verifier,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The unique index is the only uniqueness check, so concurrent
	// registrations of one name cannot both succeed.
	if err := service.users.Create(context, user); err != nil {
		if apperr.HasCode(err, apperr.CodeConflict) {
			return nil, apperr.Conflict("Username is already taken")
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// # Authentication Flow

/*
Verify checks a username and password pair.

Description: Unknown usernames still pay for one KDF evaluation against a
dummy verifier, so the response time does not reveal whether the account
exists. Verifiers produced with outdated parameters are upgraded after a
successful check.

Returns:
  - *User: The authenticated account
  - error: apperr.InvalidCredentials for every failed attempt
*/
func (service *Service) Verify(context context.Context, username, password string) (*User, error) {
	user, err := service.users.FindByUsername(context, FoldUsername(username))
	if err != nil {
		if !errors.Is(err, dberr.ErrNotFound) {
			return nil, err
		}
		service.hasher.DummyVerify(password)
		return nil, apperr.InvalidCredentials()
	}

	ok, err := service.hasher.Verify(password, user.Verifier)
	if err != nil {
		ctxutil.GetLogger(context).ErrorContext(context, "verifier_unreadable",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return nil, apperr.InvalidCredentials()
	}
	if !ok {
		return nil, apperr.InvalidCredentials()
	}

	if service.hasher.NeedsRehash(user.Verifier) {
		service.rehash(context, user, password)
	}

	return user, nil
}

// rehash upgrades a verifier in place. Failure leaves the old one usable.
func (service *Service) rehash(context context.Context, user *User, password string) {
	verifier, err := service.hasher.Hash(password)
	if err == nil {
		err = service.users.UpdateVerifier(context, user.ID, verifier)
	}
	if err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "verifier_rehash_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return
	}
	user.Verifier = verifier
}

/*
Login verifies credentials and opens a new session.

Parameters:
  - context: context.Context
  - username: string
  - password: string
  - meta: sec.RequestMeta (Bound into the session fingerprint)

Returns:
  - *LoginResult: The user and the raw session and CSRF tokens
  - error: apperr.InvalidCredentials or storage failures
*/
func (service *Service) Login(context context.Context, username, password string, meta sec.RequestMeta) (*LoginResult, error) {
	user, err := service.Verify(context, username, password)
	if err != nil {
		return nil, err
	}

	issued, err := service.sessions.Create(context, user.ID, meta)
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "session_created", slog.String("user_id", user.ID))
	return &LoginResult{User: user, Session: issued}, nil
}

/*
Logout ends the principal's session.

Description: Under the single-session policy every session of the user is
revoked, otherwise only the one presented. Logging out twice succeeds.
*/
func (service *Service) Logout(context context.Context, principal sec.Principal) error {
	if service.sessions.config.SingleSession && principal.UserID != "" {
		if _, err := service.sessions.RevokeAllFor(context, principal.UserID); err != nil {
			return fmt.Errorf("auth_service_logout_failed: %w", err)
		}
		return nil
	}

	if err := service.sessions.Revoke(context, principal.SessionToken); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Account Management

/*
ChangePassword replaces the caller's password after checking the current one.

Description: Every session of the user is revoked and a fresh one is
issued to the caller, which also rotates the CSRF token.

Returns:
  - *LoginResult: The replacement session
  - error: InvalidCredentials, validation or storage failures
*/
func (service *Service) ChangePassword(context context.Context, principal sec.Principal, current, next string, meta sec.RequestMeta) (*LoginResult, error) {
	user, err := service.users.FindByID(context, principal.UserID)
	if err != nil {
		return nil, err
	}

	ok, err := service.hasher.Verify(current, user.Verifier)
	if err != nil || !ok {
		return nil, apperr.InvalidCredentials()
	}

	if err := service.policy.Check(user.Username, next); err != nil {
		return nil, err
	}

	verifier, err := service.hasher.Hash(next)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	issued, err := service.sessions.ResetCredentials(context, user.ID, verifier, meta)
	if err != nil {
		return nil, fmt.Errorf("auth_service_change_password_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "password_changed", slog.String("user_id", user.ID))
	return &LoginResult{User: user, Session: issued}, nil
}

/*
SetRole changes a user's role and revokes all their sessions.

Description: Privileged. It is reachable only from operator tooling and
never from an HTTP route. The user must log in again, which rotates the
CSRF token along with the session.
*/
func (service *Service) SetRole(context context.Context, username string, role sec.UserRole) (*User, error) {
	if _, ok := sec.ParseRole(string(role)); !ok {
		return nil, apperr.ValidationError("Unknown role")
	}

	user, err := service.users.FindByUsername(context, FoldUsername(username))
	if err != nil {
		return nil, err
	}

	if err := service.users.UpdateRole(context, user.ID, role); err != nil {
		return nil, fmt.Errorf("auth_service_set_role_failed: %w", err)
	}
	if _, err := service.sessions.RevokeAllFor(context, user.ID); err != nil {
		return nil, fmt.Errorf("auth_service_set_role_failed: %w", err)
	}

	user.Role = role
	return user, nil
}

// FindByID returns the account behind a principal.
func (service *Service) FindByID(context context.Context, id string) (*User, error) {
	return service.users.FindByID(context, id)
}

// FindByUsername returns an account by raw or folded username.
func (service *Service) FindByUsername(context context.Context, username string) (*User, error) {
	return service.users.FindByUsername(context, FoldUsername(username))
}
