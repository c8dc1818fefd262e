// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package newsletter

import (
	"context"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
)

// SQLRepository implements [Repository] on the relational store.
type SQLRepository struct{}

// NewRepository constructs a new [SQLRepository].
func NewRepository() SQLRepository {
	return SQLRepository{}
}

// Subscribe (re)subscribes userID and binds confirmation to confirmTokenHash.
// Changing the address resets confirmation.
func (SQLRepository) Subscribe(context context.Context, q dbx.DBTX, userID, email, confirmTokenHash string, now time.Time) error {
	query := `
		INSERT INTO newsletter_subscriptions
			(user_id, email, subscribed, confirmed, unsubscribe_reason, confirm_token_hash, updated_at)
		VALUES (?, ?, 1, 0, '', ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			confirmed = CASE WHEN newsletter_subscriptions.email = excluded.email
			                 THEN newsletter_subscriptions.confirmed ELSE 0 END,
			email = excluded.email,
			subscribed = 1,
			unsubscribe_reason = '',
			confirm_token_hash = excluded.confirm_token_hash,
			updated_at = excluded.updated_at`

	if _, err := q.ExecContext(context, query, userID, email, confirmTokenHash, dbx.Millis(now)); err != nil {
		return dberr.Wrap(err, "subscribe_newsletter")
	}
	return nil
}

// Find loads the subscription of userID.
func (SQLRepository) Find(context context.Context, q dbx.DBTX, userID string) (*Subscription, error) {
	query := `
		SELECT user_id, email, subscribed, confirmed, unsubscribe_reason, updated_at
		FROM newsletter_subscriptions
		WHERE user_id = ?`

	var (
		subscription          Subscription
		subscribed, confirmed int
		updatedAt             int64
	)
	err := q.QueryRowContext(context, query, userID).Scan(
		&subscription.UserID, &subscription.Email, &subscribed, &confirmed,
		&subscription.UnsubscribeReason, &updatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_newsletter_subscription")
	}

	subscription.Subscribed = subscribed == 1
	subscription.Confirmed = confirmed == 1
	subscription.UpdatedAt = dbx.FromMillis(updatedAt)
	return &subscription, nil
}

// SetConfirmToken rebinds confirmation of the current address to a new token.
func (SQLRepository) SetConfirmToken(context context.Context, q dbx.DBTX, userID, confirmTokenHash string, now time.Time) error {
	return updateOne(context, q, "set_newsletter_confirm_token",
		`UPDATE newsletter_subscriptions SET confirm_token_hash = ?, updated_at = ? WHERE user_id = ?`,
		confirmTokenHash, dbx.Millis(now), userID)
}

// Confirm marks the address of userID as verified if confirmTokenHash is the
// token bound to it. The binding is spent on success.
func (SQLRepository) Confirm(context context.Context, q dbx.DBTX, userID, confirmTokenHash string, now time.Time) error {
	return updateOne(context, q, "confirm_newsletter", `
		UPDATE newsletter_subscriptions
		SET confirmed = 1, confirm_token_hash = '', updated_at = ?
		WHERE user_id = ? AND confirm_token_hash = ? AND confirm_token_hash <> ''`,
		dbx.Millis(now), userID, confirmTokenHash)
}

// Unsubscribe records the opt-out. A user without a row gets one, so the
// opt-out holds even if they subscribe through another channel later.
func (SQLRepository) Unsubscribe(context context.Context, q dbx.DBTX, userID, reason string, now time.Time) error {
	query := `
		INSERT INTO newsletter_subscriptions (user_id, email, subscribed, confirmed, unsubscribe_reason, updated_at)
		VALUES (?, '', 0, 0, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			subscribed = 0,
			unsubscribe_reason = excluded.unsubscribe_reason,
			updated_at = excluded.updated_at`

	if _, err := q.ExecContext(context, query, userID, reason, dbx.Millis(now)); err != nil {
		return dberr.Wrap(err, "unsubscribe_newsletter")
	}
	return nil
}

// updateOne runs an UPDATE that must touch exactly one row.
func updateOne(context context.Context, q dbx.DBTX, action, query string, args ...any) error {
	result, err := q.ExecContext(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	ok, err := dbx.ExpectOne(result)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if !ok {
		return dberr.ErrNotFound
	}
	return nil
}
