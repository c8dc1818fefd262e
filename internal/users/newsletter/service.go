// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package newsletter

import (
	"context"
	stdcontext "context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/authz"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/platform/sec"
	"github.com/taibuivan/shopfront/internal/platform/validate"
	"github.com/taibuivan/shopfront/internal/users/actiontoken"
)

// Service implements the subscription use cases.
type Service struct {
	db         *dbx.DB
	repository Repository
	tokens     *actiontoken.Service
	baseURL    string
	now        func() time.Time
}

// NewService constructs a [Service]. baseURL prefixes outbound links.
func NewService(db *dbx.DB, repository Repository, tokens *actiontoken.Service, baseURL string) *Service {
	return &Service{
		db:         db,
		repository: repository,
		tokens:     tokens,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

/*
Subscribe records the address and issues a confirmation token.

Description: The token is bound to the stored address. Subscribing again
replaces the binding, so links sent to an earlier address stop working.

Parameters:
  - context: context.Context
  - principal: sec.Principal (Must be authenticated)
  - email: string

Returns:
  - string: The confirmation link for delivery to the address
  - error: Validation or storage failures
*/
func (service *Service) Subscribe(context context.Context, principal sec.Principal, email string) (string, error) {
	if err := authz.Check(principal, authz.ActionNewsletterSubscribe, authz.Resource{}); err != nil {
		return "", err
	}

	email = strings.TrimSpace(email)
	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).MaxLen(FieldEmail, email, 254).Email(FieldEmail, email)
	if err := validator.Err(); err != nil {
		return "", err
	}

	token, err := service.tokens.Issue(context, principal.UserID, actiontoken.ActionConfirmEmail, 0)
	if err != nil {
		return "", err
	}

	err = service.repository.Subscribe(context, service.db, principal.UserID, email, sec.HashToken(token), service.now())
	if err != nil {
		return "", fmt.Errorf("newsletter_subscribe_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "newsletter_subscribed", slog.String("user_id", principal.UserID))
	return service.link("/newsletter/confirm", token), nil
}

// CheckToken peeks at a link token and requires the principal to be its subject.
func (service *Service) CheckToken(context context.Context, principal sec.Principal, token string, action actiontoken.Action) error {
	subject, err := service.tokens.Peek(context, token, action)
	if err != nil {
		return err
	}
	return authz.Check(principal, authzAction(action), authz.Resource{TokenSubject: subject})
}

/*
Confirm redeems a confirm_email token held by the principal.

Description: Only the token most recently bound to the subscription
confirms it. Marking the address verified and consuming the token commit
together; a superseded link is rejected as gone and stays unspent.
*/
func (service *Service) Confirm(context context.Context, principal sec.Principal, token string) error {
	if err := service.authorize(context, principal, token, actiontoken.ActionConfirmEmail); err != nil {
		return err
	}

	err := dbx.WithTx(context, service.db, func(context stdcontext.Context, tx dbx.DBTX) error {
		err := service.repository.Confirm(context, tx, principal.UserID, sec.HashToken(token), service.now())
		if errors.Is(err, dberr.ErrNotFound) {
			_, err = service.repository.Find(context, tx, principal.UserID)
			switch {
			case errors.Is(err, dberr.ErrNotFound):
				return apperr.NotFound("Subscription")
			case err != nil:
				return fmt.Errorf("newsletter_confirm_failed: %w", err)
			}
			return apperr.Gone("This link has been replaced by a newer one")
		}
		if err != nil {
			return fmt.Errorf("newsletter_confirm_failed: %w", err)
		}
		return service.tokens.RedeemWithin(context, tx, token, actiontoken.ActionConfirmEmail, principal.UserID)
	})
	if err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "newsletter_confirmed", slog.String("user_id", principal.UserID))
	return nil
}

/*
Unsubscribe redeems an unsubscribe token and records the opt-out.

Description: The principal must be the token's subject. A token presented
by anyone else is rejected with 403 and stays redeemable by its owner. The
opt-out and the token consumption commit together, so a failed write leaves
the link usable for a retry.
*/
func (service *Service) Unsubscribe(context context.Context, principal sec.Principal, token, reason string) error {
	reason = strings.TrimSpace(reason)
	if err := (&validate.Validator{}).MaxLen(FieldReason, reason, ReasonMaxLength).Err(); err != nil {
		return err
	}

	if err := service.authorize(context, principal, token, actiontoken.ActionUnsubscribe); err != nil {
		return err
	}

	err := dbx.WithTx(context, service.db, func(context stdcontext.Context, tx dbx.DBTX) error {
		if err := service.repository.Unsubscribe(context, tx, principal.UserID, reason, service.now()); err != nil {
			return fmt.Errorf("newsletter_unsubscribe_failed: %w", err)
		}
		return service.tokens.RedeemWithin(context, tx, token, actiontoken.ActionUnsubscribe, principal.UserID)
	})
	if err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "newsletter_unsubscribed", slog.String("user_id", principal.UserID))
	return nil
}

// Status returns the subscription of userID, or nil when there is none.
func (service *Service) Status(context context.Context, userID string) (*Subscription, error) {
	subscription, err := service.repository.Find(context, service.db, userID)
	if errors.Is(err, dberr.ErrNotFound) {
		return nil, nil
	}
	return subscription, err
}

// UnsubscribeLink issues a fresh unsubscribe token for userID and returns
// the absolute URL to embed in an outbound message.
func (service *Service) UnsubscribeLink(context context.Context, userID string) (string, error) {
	token, err := service.tokens.Issue(context, userID, actiontoken.ActionUnsubscribe, 0)
	if err != nil {
		return "", err
	}
	return service.link("/unsubscribe", token), nil
}

// ConfirmLink issues a fresh confirm_email token for the subscription of
// userID. Earlier confirmation links stop working.
func (service *Service) ConfirmLink(context context.Context, userID string) (string, error) {
	if _, err := service.repository.Find(context, service.db, userID); err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return "", apperr.NotFound("Subscription")
		}
		return "", fmt.Errorf("newsletter_confirm_link_failed: %w", err)
	}

	token, err := service.tokens.Issue(context, userID, actiontoken.ActionConfirmEmail, 0)
	if err != nil {
		return "", err
	}

	err = service.repository.SetConfirmToken(context, service.db, userID, sec.HashToken(token), service.now())
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return "", apperr.NotFound("Subscription")
		}
		return "", fmt.Errorf("newsletter_confirm_link_failed: %w", err)
	}
	return service.link("/newsletter/confirm", token), nil
}

func (service *Service) link(path, token string) string {
	return service.baseURL + path + "?" + url.Values{FieldToken: {token}}.Encode()
}

// authorize requires an authenticated principal that is the token's subject.
func (service *Service) authorize(context context.Context, principal sec.Principal, token string, action actiontoken.Action) error {
	if !principal.IsAuthenticated() {
		return apperr.Unauthenticated()
	}
	return service.CheckToken(context, principal, token, action)
}

func authzAction(action actiontoken.Action) authz.Action {
	if action == actiontoken.ActionConfirmEmail {
		return authz.ActionNewsletterConfirm
	}
	return authz.ActionUnsubscribe
}
