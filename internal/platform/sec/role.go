// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Full catalog administration
	RoleAdmin UserRole = "admin"

	// Default role for every registered shopper
	RoleRegular UserRole = "regular"
)

// ParseRole maps a raw string to a known role. The second value is false
// for anything that is not a recognised role.
func ParseRole(raw string) (UserRole, bool) {
	switch UserRole(raw) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleRegular:
		return RoleRegular, true
	default:
		return "", false
	}
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() > 0 && r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 20
	case RoleRegular:
		return 10
	default:
		return 0
	}
}
