// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// Principal is the identity attached to one request.
//
// The zero value is the anonymous principal. An authenticated principal is
// only ever built by the authenticator from a server-side session lookup, so
// UserID and Role never originate from request input.
type Principal struct {
	UserID   string
	Username string
	Role     UserRole

	// SessionToken is the raw cookie value. It stays in memory only.
	SessionToken string
	// CSRFToken is the anti-forgery secret bound to the session.
	CSRFToken string
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// IsAuthenticated reports whether the principal is backed by a live session.
func (p Principal) IsAuthenticated() bool {
	return p.UserID != ""
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.IsAuthenticated() && p.Role.AtLeast(RoleAdmin)
}
