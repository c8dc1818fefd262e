// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package actiontoken

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// Service implements issue and redemption on top of a [Repository].
type Service struct {
	repository Repository
	ttl        time.Duration
	now        func() time.Time
}

// NewService constructs a [Service]. ttl is the default lifetime; a nil
// clock means time.Now.
func NewService(repository Repository, ttl time.Duration, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{repository: repository, ttl: ttl, now: clock}
}

/*
Issue mints a token for subjectUserID and action.

Parameters:
  - context: context.Context
  - subjectUserID: string
  - action: Action
  - ttl: time.Duration (0 selects the configured default)

Returns:
  - string: The raw token, to be embedded in exactly one outbound link
  - error: Storage failures
*/
func (service *Service) Issue(context context.Context, subjectUserID string, action Action, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = service.ttl
	}

	token, err := sec.GenerateSecureToken(sec.DefaultTokenBytes)
	if err != nil {
		return "", fmt.Errorf("action_token_mint_failed: %w", err)
	}

	record := &Record{
		TokenHash:     sec.HashToken(token),
		SubjectUserID: subjectUserID,
		Action:        action,
		ExpiresAt:     service.now().Add(ttl),
	}
	if err := service.repository.Create(context, record); err != nil {
		return "", fmt.Errorf("action_token_issue_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "action_token_issued",
		slog.String("user_id", subjectUserID),
		slog.String("action", string(action)),
	)
	return token, nil
}

// Peek validates token for action without consuming it and returns its subject.
func (service *Service) Peek(context context.Context, token string, action Action) (string, error) {
	record, err := service.find(context, token)
	if err != nil {
		return "", err
	}
	if err := service.check(record, action, ""); err != nil {
		return "", err
	}
	return record.SubjectUserID, nil
}

// Redeem consumes token for action and returns its subject.
func (service *Service) Redeem(context context.Context, token string, action Action) (string, error) {
	return service.redeem(context, nil, token, action, "")
}

// RedeemAs consumes token only when subjectUserID owns it. A token presented
// by another user is left untouched.
func (service *Service) RedeemAs(context context.Context, token string, action Action, subjectUserID string) error {
	_, err := service.redeem(context, nil, token, action, subjectUserID)
	return err
}

/*
RedeemWithin is [Service.RedeemAs] with the consume issued on q, so it
commits or rolls back together with the caller's other writes.

Description: A Redis-backed store cannot join q. Callers should write first
and redeem last, so a failed consume still rolls the writes back.
*/
func (service *Service) RedeemWithin(context context.Context, q dbx.DBTX, token string, action Action, subjectUserID string) error {
	_, err := service.redeem(context, q, token, action, subjectUserID)
	return err
}

/*
redeem runs the check-then-consume sequence.

Description: The pre-check only produces a precise error. Exclusivity comes
from the conditional consume; a caller that loses the race re-reads the
record and reports why.
*/
func (service *Service) redeem(context context.Context, q dbx.DBTX, token string, action Action, subject string) (string, error) {
	record, err := service.find(context, token)
	if err != nil {
		return "", err
	}
	if err := service.check(record, action, subject); err != nil {
		return "", err
	}

	won, err := service.repository.Consume(context, q, record.TokenHash, action, record.SubjectUserID, service.now())
	if err != nil {
		return "", fmt.Errorf("action_token_consume_failed: %w", err)
	}
	if !won {
		current, err := service.find(context, token)
		if err != nil {
			return "", err
		}
		if err := service.check(current, action, subject); err != nil {
			return "", err
		}
		return "", statusOf(ErrConsumed)
	}

	ctxutil.GetLogger(context).InfoContext(context, "action_token_redeemed",
		slog.String("user_id", record.SubjectUserID),
		slog.String("action", string(action)),
	)
	return record.SubjectUserID, nil
}

// PurgeExpired deletes records past their expiry and retention window.
func (service *Service) PurgeExpired(context context.Context) (int64, error) {
	return service.repository.DeleteExpired(context, service.now().Add(-Retention))
}

func (service *Service) find(context context.Context, token string) (*Record, error) {
	if token == "" {
		return nil, statusOf(ErrNotFound)
	}

	record, err := service.repository.Find(context, sec.HashToken(token))
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, statusOf(ErrNotFound)
		}
		return nil, fmt.Errorf("action_token_find_failed: %w", err)
	}
	return record, nil
}

// check applies the redemption rules in order: action, subject, use, expiry.
func (service *Service) check(record *Record, action Action, subject string) error {
	switch {
	case record.Action != action:
		return statusOf(ErrWrongAction)
	case subject != "" && !sec.ConstantTimeEqual(record.SubjectUserID, subject):
		return statusOf(ErrSubjectMismatch)
	case record.ConsumedAt != nil:
		return statusOf(ErrConsumed)
	case !service.now().Before(record.ExpiresAt):
		return statusOf(ErrExpired)
	}
	return nil
}

// statusOf maps a redemption failure to its client-facing error.
func statusOf(cause error) *apperr.AppError {
	switch cause {
	case ErrExpired:
		return apperr.Gone("This link has expired").WithCause(cause)
	case ErrConsumed:
		return apperr.Conflict("This link has already been used").WithCause(cause)
	case ErrSubjectMismatch:
		return apperr.Forbidden().WithCause(cause)
	default:
		return apperr.NotFound("Link").WithCause(cause)
	}
}
