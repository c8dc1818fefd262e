// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// Authenticator maps a session cookie to a [sec.Principal].
type Authenticator struct {
	sessions *SessionStore
	users    UserRepository
}

// NewAuthenticator constructs an [Authenticator].
func NewAuthenticator(sessions *SessionStore, users UserRepository) *Authenticator {
	return &Authenticator{sessions: sessions, users: users}
}

/*
Authenticate resolves token into a principal.

Description: The role is read from the user record on every call, so a
role change takes effect without trusting anything the client sends.

Returns:
  - sec.Principal: Anonymous unless the token names a live session
  - string: The rotated token after sliding renewal, or ""
  - error: apperr.Unauthenticated when a presented token names no usable
    session, other errors for storage failures
*/
func (authenticator *Authenticator) Authenticate(context context.Context, token string, meta sec.RequestMeta) (sec.Principal, string, error) {
	if token == "" {
		return sec.Anonymous(), "", nil
	}

	result, err := authenticator.sessions.Lookup(context, token, meta)
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired), errors.Is(err, ErrFingerprintMismatch):
		return sec.Anonymous(), "", apperr.Unauthenticated().WithCause(err)
	case err != nil:
		return sec.Anonymous(), "", err
	}

	user, err := authenticator.users.FindByID(context, result.Session.UserID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return sec.Anonymous(), "", apperr.Unauthenticated().WithCause(ErrSessionNotFound)
		}
		return sec.Anonymous(), "", err
	}

	current := token
	if result.RotatedToken != "" {
		current = result.RotatedToken
	}

	return sec.Principal{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		SessionToken: current,
		CSRFToken:    result.Session.CSRFToken,
	}, result.RotatedToken, nil
}
