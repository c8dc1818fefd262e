// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart

import (
	"context"
	stdcontext "context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/authz"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/platform/sec"
	"github.com/taibuivan/shopfront/internal/platform/validate"
	"github.com/taibuivan/shopfront/pkg/uuid"
)

// # Service Layer

// Service orchestrates carts, stored cards and checkout.
type Service struct {
	db          *dbx.DB
	store       Store
	gateway     PaymentGateway
	shippingFee int64
	now         func() time.Time
}

// NewService constructs a new [Service]. shippingFeeCents is added to every
// non-empty order.
func NewService(db *dbx.DB, gateway PaymentGateway, shippingFeeCents int64) *Service {
	return &Service{
		db:          db,
		gateway:     gateway,
		shippingFee: shippingFeeCents,
		now:         time.Now,
	}
}

// # Cart

// View returns the priced cart of the principal.
func (service *Service) View(context context.Context, principal sec.Principal) (*Cart, error) {
	if err := authz.Check(principal, authz.ActionCartView, authz.Resource{}); err != nil {
		return nil, err
	}

	items, err := service.store.Items(context, service.db, principal.UserID)
	if err != nil {
		return nil, err
	}
	return newCart(items, service.shippingFee), nil
}

/*
Add puts quantity units of a product in the principal's cart.

Description: The stock rule applies to the cumulative quantity, so repeated
adds cannot exceed what is on the shelf. The read and the write share one
transaction.

Parameters:
  - context: context.Context
  - principal: sec.Principal
  - productID: int64
  - quantity: int64 (>= 1)

Returns:
  - error: 401, 400 (quantity), 404 (product) or 409 (stock)
*/
func (service *Service) Add(context context.Context, principal sec.Principal, productID, quantity int64) error {
	if !principal.IsAuthenticated() {
		return apperr.Unauthenticated()
	}
	if quantity > MaxQuantity {
		return validate.FieldError(FieldQuantity, fmt.Sprintf("Must be at most %d", MaxQuantity))
	}

	var total int64
	err := dbx.WithTx(context, service.db, func(context stdcontext.Context, tx dbx.DBTX) error {
		product, err := service.store.Product(context, tx, productID)
		if err != nil {
			return err
		}
		existing, err := service.store.Quantity(context, tx, principal.UserID, productID)
		if err != nil {
			return err
		}

		total = quantity
		if quantity >= 1 {
			total = existing + quantity
		}

		err = authz.Check(principal, authz.ActionCartAdd, authz.Resource{
			ProductExists: product.Exists,
			Stock:         product.Stock,
			Quantity:      total,
		})
		if err != nil {
			return err
		}

		return service.store.SetQuantity(context, tx, principal.UserID, productID, total, service.now())
	})
	if err != nil {
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "cart_item_added",
		slog.Int64("product_id", productID),
		slog.Int64("quantity", total),
	)
	return nil
}

// # Checkout

/*
Checkout turns the principal's cart into a paid order.

Description: cardNumber is an optional one-off card; when empty the stored
card is charged. Stock is taken with conditional updates, so concurrent
buyers of the last unit cannot both succeed. A declined charge or a stock
shortfall rolls the whole transaction back and leaves the cart untouched.

Parameters:
  - context: context.Context
  - principal: sec.Principal
  - cardNumber: string (Optional)

Returns:
  - *Order: The placed order
  - error: 401, 400 (empty cart or card), 402 (no card or declined), 409 (stock)
*/
func (service *Service) Checkout(context context.Context, principal sec.Principal, cardNumber string) (*Order, error) {
	cardNumber = strings.TrimSpace(cardNumber)
	logger := ctxutil.GetLogger(context)

	var order *Order
	err := dbx.WithTx(context, service.db, func(context stdcontext.Context, tx dbx.DBTX) error {
		items, err := service.store.Items(context, tx, principal.UserID)
		if err != nil {
			return err
		}
		method, err := service.store.PaymentMethod(context, tx, principal.UserID)
		if err != nil {
			return err
		}

		err = authz.Check(principal, authz.ActionCheckout, authz.Resource{
			CartItems:         len(items),
			HasPaymentMethod:  method != nil,
			HasPaymentPayload: cardNumber != "",
		})
		if err != nil {
			return err
		}

		ref, err := service.paymentRef(context, cardNumber, method)
		if err != nil {
			return err
		}

		now := service.now()
		for _, item := range items {
			ok, err := service.store.DecrementStock(context, tx, item.ProductID, item.Quantity, now)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Conflict("Insufficient stock for " + item.Name)
			}
		}

		cart := newCart(items, service.shippingFee)
		chargeRef, err := service.gateway.Charge(context, ref, cart.TotalCents)
		if errors.Is(err, ErrDeclined) {
			return apperr.PaymentDeclined().WithCause(err)
		}
		if err != nil {
			return apperr.Internal(fmt.Errorf("charge_failed: %w", err))
		}

		order = &Order{
			ID:            uuid.New(),
			UserID:        principal.UserID,
			SubtotalCents: cart.SubtotalCents,
			ShippingCents: cart.ShippingCents,
			TotalCents:    cart.TotalCents,
			PaymentRef:    chargeRef,
			CreatedAt:     now,
			Items:         items,
		}
		if err := service.store.InsertOrder(context, tx, order); err != nil {
			return err
		}
		return service.store.Clear(context, tx, principal.UserID)
	})
	if err != nil {
		if apperr.HasCode(err, apperr.CodePaymentDeclined) || apperr.HasCode(err, apperr.CodeConflict) {
			logger.WarnContext(context, "checkout_rejected", slog.String("reason", err.Error()))
		}
		return nil, err
	}

	logger.InfoContext(context, "order_placed",
		slog.String("order_id", order.ID),
		slog.Int64("total_cents", order.TotalCents),
		slog.Int("lines", len(order.Items)),
	)
	return order, nil
}

// paymentRef picks the one-off card when given, else the stored card.
func (service *Service) paymentRef(context context.Context, cardNumber string, method *PaymentMethod) (string, error) {
	if cardNumber == "" {
		return method.GatewayRef, nil
	}
	if err := (&validate.Validator{}).CardNumber(FieldCardNumber, cardNumber).Err(); err != nil {
		return "", err
	}
	ref, _, err := service.gateway.Tokenize(context, cardNumber)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("tokenize_failed: %w", err))
	}
	return ref, nil
}

// # Payment Methods

// SavePaymentMethod tokenises cardNumber and stores it as the principal's card.
// Only the last four digits and the gateway reference are kept.
func (service *Service) SavePaymentMethod(context context.Context, principal sec.Principal, cardNumber string) (*PaymentMethod, error) {
	if err := authz.Check(principal, authz.ActionAccountPayment, authz.Resource{}); err != nil {
		return nil, err
	}

	cardNumber = strings.TrimSpace(cardNumber)
	if err := (&validate.Validator{}).CardNumber(FieldCardNumber, cardNumber).Err(); err != nil {
		return nil, err
	}

	ref, last4, err := service.gateway.Tokenize(context, cardNumber)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("tokenize_failed: %w", err))
	}

	method := &PaymentMethod{
		UserID:     principal.UserID,
		CardLast4:  last4,
		GatewayRef: ref,
		CreatedAt:  service.now(),
	}
	if err := service.store.SavePaymentMethod(context, service.db, method); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "payment_method_saved", slog.String("card_last4", last4))
	return method, nil
}

// CardLast4 returns the last digits of the stored card of userID, or "".
func (service *Service) CardLast4(context context.Context, userID string) (string, error) {
	method, err := service.store.PaymentMethod(context, service.db, userID)
	if err != nil || method == nil {
		return "", err
	}
	return method.CardLast4, nil
}

// Orders reports how many orders userID has placed.
func (service *Service) Orders(context context.Context, userID string) (int, error) {
	return service.store.OrderCount(context, service.db, userID)
}
