// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package authz decides whether a principal may perform an action.

[Authorize] is a pure function: it performs no I/O and reads no request
input. Callers load whatever facts the rule needs (stock, purchase rows, the
subject of an action token) into a [Resource] first, ideally inside the same
transaction that will perform the mutation.

Policy:

	page.view, auth.login, auth.register   allow
	auth.logout, account.*, newsletter.*   authenticated
	admin.product.*                        role = admin
	cart.add                               authenticated, product exists, 1 <= qty <= stock
	checkout                               authenticated, cart non-empty, payment available
	review.create                          authenticated, purchased, not yet reviewed, valid input
	unsubscribe.perform                    authenticated, principal = token subject
*/
package authz

import (
	"strings"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// Action names an operation subject to access control.
type Action string

const (
	ActionPageView Action = "page.view"
	ActionLogin    Action = "auth.login"
	ActionRegister Action = "auth.register"
	ActionLogout   Action = "auth.logout"

	ActionAccountView     Action = "account.view"
	ActionAccountPassword Action = "account.password"
	ActionAccountPayment  Action = "account.payment"

	ActionAdminProductList   Action = "admin.product.list"
	ActionAdminProductCreate Action = "admin.product.create"
	ActionAdminProductUpdate Action = "admin.product.update"
	ActionAdminProductDelete Action = "admin.product.delete"

	ActionCartView     Action = "cart.view"
	ActionCartAdd      Action = "cart.add"
	ActionCheckout     Action = "checkout"
	ActionReviewCreate Action = "review.create"

	ActionNewsletterSubscribe Action = "newsletter.subscribe"
	ActionNewsletterConfirm   Action = "newsletter.confirm"
	ActionUnsubscribe         Action = "unsubscribe.perform"
)

// Reason classifies a denial. It only selects the response status.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnauthenticated
	ReasonForbidden
	ReasonNotFound
	ReasonConflict
	ReasonInvalid
	ReasonPaymentRequired
)

// Resource holds the server-side facts a rule is evaluated against.
// Only the fields relevant to the action are consulted.
type Resource struct {
	// cart.add
	ProductExists bool
	Stock         int64
	Quantity      int64

	// checkout
	CartItems         int
	HasPaymentMethod  bool
	HasPaymentPayload bool

	// review.create
	HasPurchase    bool
	HasPriorReview bool
	Rating         int
	Text           string

	// unsubscribe.perform, newsletter.confirm
	TokenSubject string
}

// Decision is the outcome of [Authorize].
type Decision struct {
	Allowed bool
	Reason  Reason
	// Field and Detail describe a Conflict or Invalid denial.
	Field  string
	Detail string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason Reason) Decision { return Decision{Reason: reason} }

func denyWith(reason Reason, field, detail string) Decision {
	return Decision{Reason: reason, Field: field, Detail: detail}
}

/*
Authorize evaluates the policy for one action.

Parameters:
  - principal: sec.Principal (Identity resolved from the session)
  - action: Action
  - resource: Resource (Server-side facts, zero value when none apply)

Returns:
  - Decision: Allowed, or the reason for the denial
*/
func Authorize(principal sec.Principal, action Action, resource Resource) Decision {
	switch action {
	case ActionPageView, ActionLogin, ActionRegister:
		return allow()
	}

	// Every other action needs a session.
	if !principal.IsAuthenticated() {
		return deny(ReasonUnauthenticated)
	}

	switch action {
	case ActionLogout, ActionAccountView, ActionAccountPassword, ActionAccountPayment,
		ActionCartView, ActionNewsletterSubscribe:
		return allow()

	case ActionAdminProductList, ActionAdminProductCreate, ActionAdminProductUpdate, ActionAdminProductDelete:
		if !principal.IsAdmin() {
			return deny(ReasonForbidden)
		}
		return allow()

	case ActionCartAdd:
		return authorizeCartAdd(resource)

	case ActionCheckout:
		if resource.CartItems == 0 {
			return denyWith(ReasonInvalid, "cart", "Cart is empty")
		}
		if !resource.HasPaymentMethod && !resource.HasPaymentPayload {
			return deny(ReasonPaymentRequired)
		}
		return allow()

	case ActionReviewCreate:
		return authorizeReview(resource)

	case ActionUnsubscribe, ActionNewsletterConfirm:
		if resource.TokenSubject == "" || !sec.ConstantTimeEqual(resource.TokenSubject, principal.UserID) {
			return deny(ReasonForbidden)
		}
		return allow()
	}

	// Unknown actions are denied.
	return deny(ReasonForbidden)
}

func authorizeCartAdd(resource Resource) Decision {
	if resource.Quantity < 1 {
		return denyWith(ReasonInvalid, "quantity", "Must be greater than zero")
	}
	if !resource.ProductExists {
		return deny(ReasonNotFound)
	}
	if resource.Stock < resource.Quantity {
		return denyWith(ReasonConflict, "quantity", "Insufficient stock")
	}
	return allow()
}

func authorizeReview(resource Resource) Decision {
	// Input checks come first so a malformed request never probes purchase state.
	if resource.Rating < 1 || resource.Rating > 5 {
		return denyWith(ReasonInvalid, "rating", "Must be between 1 and 5")
	}
	if strings.TrimSpace(resource.Text) == "" {
		return denyWith(ReasonInvalid, "text", "This field is required")
	}
	if !resource.HasPurchase {
		return deny(ReasonForbidden)
	}
	if resource.HasPriorReview {
		return denyWith(ReasonConflict, "product_id", "Product already reviewed")
	}
	return allow()
}

// Err maps a denial to the error surfaced to the client; nil when allowed.
func (decision Decision) Err() error {
	if decision.Allowed {
		return nil
	}

	switch decision.Reason {
	case ReasonUnauthenticated:
		return apperr.Unauthenticated()
	case ReasonNotFound:
		return apperr.NotFound("Product")
	case ReasonConflict:
		return apperr.Conflict(decision.Detail)
	case ReasonInvalid:
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: decision.Field, Message: decision.Detail})
	case ReasonPaymentRequired:
		return apperr.PaymentRequired()
	default:
		return apperr.Forbidden()
	}
}

// Check is shorthand for Authorize(...).Err().
func Check(principal sec.Principal, action Action, resource Resource) error {
	return Authorize(principal, action, resource).Err()
}
