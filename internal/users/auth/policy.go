// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/shopfront/internal/platform/validate"
)

const (
	// UsernameMaxLength is counted in runes after folding.
	UsernameMaxLength = 64

	// PasswordMaxBytes bounds the KDF input.
	PasswordMaxBytes = 1024
)

// blockedPasswords rejects the most common choices outright.
var blockedPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
	"12345678": {}, "123456789": {}, "1234567890": {}, "87654321": {},
	"11111111": {}, "00000000": {}, "abcdefgh": {}, "abc12345": {},
	"qwertyui": {}, "qwerty123": {}, "qwertyuiop": {}, "asdfghjk": {},
	"iloveyou": {}, "letmein1": {}, "letmein123": {}, "welcome1": {},
	"sunshine": {}, "princess": {}, "football": {}, "baseball": {},
	"admin123": {}, "changeme": {}, "trustno1": {}, "superman": {},
}

// FoldUsername trims, NFKC-normalizes and case-folds a username so that
// visually identical names collide in the unique index.
func FoldUsername(raw string) string {
	// Casers are stateful; one per call.
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(raw)))
}

// PasswordPolicy holds the configurable password rules.
type PasswordPolicy struct {
	MinLength int
}

// Check validates password for the already folded username.
func (policy PasswordPolicy) Check(username, password string) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldPassword, password).
		MinLen(FieldPassword, password, policy.MinLength).
		Custom(FieldPassword, len(password) > PasswordMaxBytes, "Password is too long")

	if validator.HasErrors() {
		return validator.Err()
	}

	folded := cases.Fold().String(password)
	if _, blocked := blockedPasswords[folded]; blocked {
		return validate.FieldError(FieldPassword, "Password is too common")
	}
	if username != "" && folded == username {
		return validate.FieldError(FieldPassword, "Password must differ from the username")
	}

	return nil
}

// checkUsername validates a folded username.
func checkUsername(username string) error {
	return (&validate.Validator{}).
		Required(FieldUsername, username).
		Custom(FieldUsername, utf8.RuneCountInString(username) > UsernameMaxLength, "Username is too long").
		Username(FieldUsername, username).
		Err()
}
