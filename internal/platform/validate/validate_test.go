// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_string", "alice", false},
		{"empty_string", "", true},
		{"whitespace_only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required("username", tt.value)

			if !tt.hasError {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
				return
			}

			ae := apperr.As(v.Err())
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeValidation, ae.Code)
			assert.Equal(t, "username", ae.Details[0].Field)
		})
	}
}

/*
TestValidator_Email checks that only bare addresses pass.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		email   string
		isValid bool
	}{
		{"buyer@example.com", true},
		{"Buyer <buyer@example.com>", false},
		{"invalid-email", false},
		{"buyer@", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			v := (&validate.Validator{}).Email("email", tt.email)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Username checks the folded username alphabet.
*/
func TestValidator_Username(t *testing.T) {
	valid := []string{"alice", "bob.smith", "user_01", "ñandú"}
	invalid := []string{"-leading", "has space", "semi;colon", "a/b"}

	for _, name := range valid {
		assert.False(t, (&validate.Validator{}).Username("username", name).HasErrors(), name)
	}
	for _, name := range invalid {
		assert.True(t, (&validate.Validator{}).Username("username", name).HasErrors(), name)
	}
}

/*
TestValidator_Numbers covers the integer helpers used by the shop.
*/
func TestValidator_Numbers(t *testing.T) {
	assert.True(t, (&validate.Validator{}).Range("rating", 0, 1, 5).HasErrors())
	assert.True(t, (&validate.Validator{}).Range("rating", 6, 1, 5).HasErrors())
	assert.False(t, (&validate.Validator{}).Range("rating", 5, 1, 5).HasErrors())

	assert.True(t, (&validate.Validator{}).Positive("quantity", 0).HasErrors())
	assert.False(t, (&validate.Validator{}).Positive("quantity", 1).HasErrors())

	assert.True(t, (&validate.Validator{}).NonNegative("stock", -1).HasErrors())
	assert.False(t, (&validate.Validator{}).NonNegative("stock", 0).HasErrors())

	assert.False(t, (&validate.Validator{}).CardNumber("card", "4111111111111111").HasErrors())
	assert.True(t, (&validate.Validator{}).CardNumber("card", "4111-1111").HasErrors())
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	err := (&validate.Validator{}).
		Required("username", "").
		MinLen("password", "short", 8).
		Email("email", "not-an-email").
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 3)
}
