// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Session Transport: Cookie and form field names shared by middleware and templates.
  - Storage: Redis key prefixes.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "shopfront"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// StartupTimeout bounds database connection and migration at boot.
	StartupTimeout = 30 * time.Second
)

// # Session Transport

const (
	// SessionCookieName is the only cookie the authenticator reads.
	SessionCookieName = "session"

	// CSRFFormField is the hidden input carrying the anti-forgery token.
	CSRFFormField = "csrf_token"

	// LoginPath is where unauthenticated navigations are sent.
	LoginPath = "/login"

	// DefaultLandingPath is the post-login destination when no safe "next" is given.
	DefaultLandingPath = "/dashboard"
)

// # HTTP Headers

const (
	HeaderXRequestID  = "X-Request-ID"
	HeaderCSRFToken   = "X-CSRF-Token"
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
)

// # Redis Prefixes

const (
	RedisPrefixActionToken = "shop:action_token:"
)
