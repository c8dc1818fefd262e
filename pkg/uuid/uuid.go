// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides the time-ordered identifiers used for users and orders.

Version 7 values sort by creation time, so new rows append to the primary
key index on both SQLite and PostgreSQL. They identify rows only; nothing
secret is ever derived from them.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate v7: " + err.Error())
	}

	return id.String()
}

// Valid reports whether s is a canonical UUID of any version.
func Valid(s string) bool {
	parsed, err := uuid.Parse(s)
	return err == nil && parsed.String() == s
}
