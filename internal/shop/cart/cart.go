// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package cart implements the shopping cart, stored payment methods and
// checkout.
//
// Checkout runs in a single transaction: stock is decremented with
// conditional updates, the card is charged, and the order, its items and
// the purchase records are written before the cart is cleared. Any failure,
// including a declined charge, rolls everything back and leaves the cart as
// it was.
package cart

import (
	"time"

	"github.com/taibuivan/shopfront/pkg/money"
)

// Field names shared by forms and JSON bodies.
const (
	FieldProductID  = "product_id"
	FieldQuantity   = "quantity"
	FieldCardNumber = "card_number"
)

// MaxQuantity bounds a single cart line.
const MaxQuantity = 1000

// Item is one cart line joined with its live product.
type Item struct {
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Stock          int64  `json:"-"`
}

// LineCents is the line total.
func (item Item) LineCents() int64 {
	return item.UnitPriceCents * item.Quantity
}

// LineLabel renders the line total for templates.
func (item Item) LineLabel() string {
	return money.Format(item.LineCents())
}

// Cart is a priced view of a user's cart.
type Cart struct {
	Items         []Item `json:"items"`
	SubtotalCents int64  `json:"subtotal_cents"`
	ShippingCents int64  `json:"shipping_cents"`
	TotalCents    int64  `json:"total_cents"`
}

// newCart prices items. Shipping applies only to a non-empty cart.
func newCart(items []Item, shippingFee int64) *Cart {
	cart := &Cart{Items: items}
	for _, item := range items {
		cart.SubtotalCents += item.LineCents()
	}
	if len(items) > 0 {
		cart.ShippingCents = shippingFee
	}
	cart.TotalCents = cart.SubtotalCents + cart.ShippingCents
	return cart
}

func (cart *Cart) SubtotalLabel() string { return money.Format(cart.SubtotalCents) }
func (cart *Cart) ShippingLabel() string { return money.Format(cart.ShippingCents) }
func (cart *Cart) TotalLabel() string    { return money.Format(cart.TotalCents) }

// PaymentMethod is the stored mock card of a user.
type PaymentMethod struct {
	UserID     string    `json:"-"`
	CardLast4  string    `json:"card_last4"`
	GatewayRef string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// Order is the receipt of a successful checkout.
type Order struct {
	ID            string    `json:"order_id"`
	UserID        string    `json:"-"`
	SubtotalCents int64     `json:"subtotal_cents"`
	ShippingCents int64     `json:"shipping_cents"`
	TotalCents    int64     `json:"total_cents"`
	PaymentRef    string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	Items         []Item    `json:"items"`
}
