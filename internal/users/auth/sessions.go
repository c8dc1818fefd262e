// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// Lookup failures. They never reach clients verbatim.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrFingerprintMismatch = errors.New("session fingerprint mismatch")
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// SessionConfig holds the session lifecycle settings.
type SessionConfig struct {
	TTL             time.Duration
	RenewThreshold  time.Duration
	SingleSession   bool
	BindFingerprint bool
}

// IssuedSession is what a successful login hands back to the transport.
// Token is the raw cookie value; only its hash is stored.
type IssuedSession struct {
	Token     string
	CSRFToken string
	ExpiresAt time.Time
}

// LookupResult is a live session plus, after sliding renewal, its new token.
type LookupResult struct {
	Session      *Session
	RotatedToken string
}

// SessionStore owns the server-side session lifecycle.
type SessionStore struct {
	repository SessionRepository
	config     SessionConfig
	now        Clock
}

// NewSessionStore constructs a [SessionStore]. A nil clock means time.Now.
func NewSessionStore(repository SessionRepository, config SessionConfig, clock Clock) *SessionStore {
	if clock == nil {
		clock = time.Now
	}
	if config.RenewThreshold <= 0 {
		config.RenewThreshold = config.TTL / 2
	}
	return &SessionStore{repository: repository, config: config, now: clock}
}

// TTL reports the configured session lifetime.
func (store *SessionStore) TTL() time.Duration {
	return store.config.TTL
}

/*
Create mints a session and its CSRF token for userID.

Under the single-session policy every other session of the user is revoked
in the same transaction as the insert.

Parameters:
  - context: context.Context
  - userID: string
  - meta: sec.RequestMeta (Source of the bound fingerprint)

Returns:
  - IssuedSession: Raw token, CSRF token and expiry
  - error: Storage failures
*/
func (store *SessionStore) Create(context context.Context, userID string, meta sec.RequestMeta) (IssuedSession, error) {
	session, issued, err := store.mint(userID, meta)
	if err != nil {
		return IssuedSession{}, err
	}

	if err := store.repository.Create(context, session, store.config.SingleSession); err != nil {
		return IssuedSession{}, fmt.Errorf("session_store_create_failed: %w", err)
	}
	return issued, nil
}

/*
ResetCredentials stores verifier as the user's password, revokes every
session the user holds and mints a replacement session, atomically.

Returns:
  - IssuedSession: The only session left for the user
  - error: dberr.ErrNotFound when the user is gone, or storage failures
*/
func (store *SessionStore) ResetCredentials(context context.Context, userID, verifier string, meta sec.RequestMeta) (IssuedSession, error) {
	session, issued, err := store.mint(userID, meta)
	if err != nil {
		return IssuedSession{}, err
	}

	if err := store.repository.ResetCredentials(context, session, verifier); err != nil {
		return IssuedSession{}, fmt.Errorf("session_store_reset_failed: %w", err)
	}
	return issued, nil
}

func (store *SessionStore) mint(userID string, meta sec.RequestMeta) (*Session, IssuedSession, error) {
	token, err := sec.GenerateSecureToken(sec.DefaultTokenBytes)
	if err != nil {
		return nil, IssuedSession{}, fmt.Errorf("session_store_mint_failed: %w", err)
	}
	csrfToken, err := sec.GenerateSecureToken(sec.DefaultTokenBytes)
	if err != nil {
		return nil, IssuedSession{}, fmt.Errorf("session_store_mint_failed: %w", err)
	}

	now := store.now()
	session := &Session{
		TokenHash:   sec.HashToken(token),
		UserID:      userID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(store.config.TTL),
		Fingerprint: sec.Fingerprint(meta),
		CSRFToken:   csrfToken,
	}
	return session, IssuedSession{Token: token, CSRFToken: csrfToken, ExpiresAt: session.ExpiresAt}, nil
}

/*
Lookup resolves a raw session token.

Description: Expired sessions are deleted on sight. A fingerprint mismatch
is rejected without revoking the session, so a stolen cookie replayed from
elsewhere cannot log the owner out. Sessions older than the renewal
threshold are re-keyed; losing that race to a concurrent request keeps the
current request authenticated without a new token.

Returns:
  - LookupResult: The live session and an optional rotated token
  - error: ErrSessionNotFound, ErrSessionExpired, ErrFingerprintMismatch or storage failures
*/
func (store *SessionStore) Lookup(context context.Context, token string, meta sec.RequestMeta) (LookupResult, error) {
	if token == "" {
		return LookupResult{}, ErrSessionNotFound
	}

	tokenHash := sec.HashToken(token)
	session, err := store.repository.FindByTokenHash(context, tokenHash)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return LookupResult{}, ErrSessionNotFound
		}
		return LookupResult{}, err
	}

	// ── 1. Expiry ─────────────────────────────────────────────────────────
	now := store.now()
	if !now.Before(session.ExpiresAt) {
		if err := store.repository.Delete(context, tokenHash); err != nil {
			return LookupResult{}, err
		}
		return LookupResult{}, ErrSessionExpired
	}

	// ── 2. Fingerprint ────────────────────────────────────────────────────
	if store.config.BindFingerprint && session.Fingerprint != "" &&
		!sec.ConstantTimeEqual(session.Fingerprint, sec.Fingerprint(meta)) {
		return LookupResult{}, ErrFingerprintMismatch
	}

	// ── 3. Sliding renewal ────────────────────────────────────────────────
	if !now.After(session.IssuedAt.Add(store.config.RenewThreshold)) {
		return LookupResult{Session: session}, nil
	}

	rotated, err := sec.GenerateSecureToken(sec.DefaultTokenBytes)
	if err != nil {
		return LookupResult{}, fmt.Errorf("session_store_mint_failed: %w", err)
	}

	newHash := sec.HashToken(rotated)
	expiresAt := now.Add(store.config.TTL)
	won, err := store.repository.Rotate(context, tokenHash, newHash, now, expiresAt)
	if err != nil {
		return LookupResult{}, err
	}
	if !won {
		return LookupResult{Session: session}, nil
	}

	session.TokenHash = newHash
	session.IssuedAt = now
	session.ExpiresAt = expiresAt
	return LookupResult{Session: session, RotatedToken: rotated}, nil
}

// Revoke deletes the session behind token. Unknown tokens are ignored.
func (store *SessionStore) Revoke(context context.Context, token string) error {
	if token == "" {
		return nil
	}
	return store.repository.Delete(context, sec.HashToken(token))
}

// RevokeAllFor deletes every session of userID.
func (store *SessionStore) RevokeAllFor(context context.Context, userID string) (int64, error) {
	return store.repository.DeleteAllForUser(context, userID)
}

// PurgeExpired deletes every session past its expiry.
func (store *SessionStore) PurgeExpired(context context.Context) (int64, error) {
	return store.repository.DeleteExpired(context, store.now())
}
