// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package actiontoken issues and redeems single-use tokens that authorise
// one named action for one user, such as an unsubscribe link.
//
// A token is bound to its subject and action at issue time and can be
// redeemed at most once, even under concurrent redemption attempts. Only
// the SHA-256 digest of a token is ever stored.
package actiontoken

import (
	"context"
	"errors"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/dbx"
)

// Action names what a token authorises.
type Action string

const (
	ActionUnsubscribe  Action = "unsubscribe"
	ActionConfirmEmail Action = "confirm_email"
)

// Retention is how long a record outlives its expiry, so late redemptions
// are reported as expired or used instead of unknown.
const Retention = 24 * time.Hour

// Redemption failures. Service errors carry one of these as their cause.
var (
	ErrNotFound        = errors.New("action token not found")
	ErrExpired         = errors.New("action token expired")
	ErrWrongAction     = errors.New("action token issued for another action")
	ErrConsumed        = errors.New("action token already consumed")
	ErrSubjectMismatch = errors.New("action token issued to another user")
)

// Record is the stored form of a token.
type Record struct {
	TokenHash     string
	SubjectUserID string
	Action        Action
	ExpiresAt     time.Time
	ConsumedAt    *time.Time
}

// Repository persists action tokens.
//
// Consume is the single point of mutual exclusion: it marks the record used
// only if it is unconsumed, matches action and subject and expires after
// now, and reports whether this caller won. A non-nil q lets a SQL store
// consume inside the caller's transaction; stores outside the database
// ignore it.
type Repository interface {
	Create(context context.Context, record *Record) error
	Find(context context.Context, tokenHash string) (*Record, error)
	Consume(context context.Context, q dbx.DBTX, tokenHash string, action Action, subject string, now time.Time) (bool, error)
	DeleteExpired(context context.Context, before time.Time) (int64, error)
}
