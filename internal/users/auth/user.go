// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements credentials, sessions and request authentication.

It defines the User and Session entities and the services around them:

  - Service: registration, login, logout, password and role changes.
  - SessionStore: create, lookup (with expiry, fingerprint check and sliding
    rotation), revoke and purge of server-side sessions.
  - Authenticator: resolves a session cookie to a [sec.Principal], reading
    the role from the user record on every request.

Identity never comes from request input. The only thing a client presents
is an opaque session token, and only its SHA-256 hash is stored.
*/
package auth

import (
	"time"

	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// # Domain Entities

// User is a registered shopper or administrator.
type User struct {
	ID       string       `json:"id"`
	Username string       `json:"username"`
	Verifier string       `json:"-"` // Never serialized.
	Role     sec.UserRole `json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is the server-side record behind a session cookie.
type Session struct {
	TokenHash   string
	UserID      string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Fingerprint string
	CSRFToken   string
}

// # Field Identifiers

const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldNext            = "next"
)
