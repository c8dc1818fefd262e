// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package newsletter manages mailing-list subscriptions and the tokenised
// confirm and unsubscribe links sent to subscribers.
package newsletter

import (
	"context"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/dbx"
)

// Field names shared by forms and JSON bodies.
const (
	FieldEmail  = "email"
	FieldToken  = "token"
	FieldReason = "reason"
)

// ReasonMaxLength bounds the free-text unsubscribe reason.
const ReasonMaxLength = 500

// Subscription is one user's newsletter state.
type Subscription struct {
	UserID            string    `json:"user_id"`
	Email             string    `json:"email"`
	Subscribed        bool      `json:"subscribed"`
	Confirmed         bool      `json:"confirmed"`
	UnsubscribeReason string    `json:"-"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Repository persists subscriptions, one row per user.
//
// Each row remembers the digest of the one confirm_email token that may
// verify its current address. Confirm succeeds only for that digest.
type Repository interface {
	Subscribe(context context.Context, q dbx.DBTX, userID, email, confirmTokenHash string, now time.Time) error
	Find(context context.Context, q dbx.DBTX, userID string) (*Subscription, error)
	SetConfirmToken(context context.Context, q dbx.DBTX, userID, confirmTokenHash string, now time.Time) error
	Confirm(context context.Context, q dbx.DBTX, userID, confirmTokenHash string, now time.Time) error
	Unsubscribe(context context.Context, q dbx.DBTX, userID, reason string, now time.Time) error
}
