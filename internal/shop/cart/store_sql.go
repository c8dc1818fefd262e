// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/database/schema"
	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
)

// Store holds the cart, payment and order queries. Every method takes the
// handle to run on so the service can compose them inside one transaction.
type Store struct{}

// ProductState is the live state of a product as seen by the cart.
type ProductState struct {
	Exists     bool
	Name       string
	PriceCents int64
	Stock      int64
}

// # Cart Lines

// Items lists the cart lines of userID whose products are still live.
func (Store) Items(context context.Context, q dbx.DBTX, userID string) ([]Item, error) {
	c, p := schema.ShopCartItem, schema.ShopProduct
	query := fmt.Sprintf(`
		SELECT p.%s, p.%s, c.%s, p.%s, p.%s
		FROM %s c
		JOIN %s p ON p.%s = c.%s
		WHERE c.%s = ? AND p.%s IS NULL
		ORDER BY p.%s ASC`,
		p.ID, p.Name, c.Quantity, p.PriceCents, p.Stock,
		c.Table,
		p.Table, p.ID, c.ProductID,
		c.UserID, p.DeletedAt,
		p.ID,
	)

	rows, err := q.QueryContext(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_cart")
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.UnitPriceCents, &item.Stock); err != nil {
			return nil, dberr.Wrap(err, "list_cart")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_cart")
	}
	return items, nil
}

// Quantity returns how many units of productID are already in the cart.
func (Store) Quantity(context context.Context, q dbx.DBTX, userID string, productID int64) (int64, error) {
	c := schema.ShopCartItem
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s = ?`, c.Quantity, c.Table, c.UserID, c.ProductID)

	var quantity int64
	err := q.QueryRowContext(context, query, userID, productID).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, dberr.Wrap(err, "cart_quantity")
	}
	return quantity, nil
}

// Product reads the state the add-to-cart rule needs.
func (Store) Product(context context.Context, q dbx.DBTX, productID int64) (ProductState, error) {
	p := schema.ShopProduct
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = ? AND %s IS NULL`,
		p.Name, p.PriceCents, p.Stock, p.Table, p.ID, p.DeletedAt)

	state := ProductState{Exists: true}
	err := q.QueryRowContext(context, query, productID).Scan(&state.Name, &state.PriceCents, &state.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return ProductState{}, nil
	}
	if err != nil {
		return ProductState{}, dberr.Wrap(err, "cart_product")
	}
	return state, nil
}

// SetQuantity creates or overwrites a cart line.
func (Store) SetQuantity(context context.Context, q dbx.DBTX, userID string, productID, quantity int64, now time.Time) error {
	c := schema.ShopCartItem
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s) VALUES (?, ?, ?, ?)
		ON CONFLICT (%s, %s) DO UPDATE SET %s = excluded.%s`,
		c.Table, c.UserID, c.ProductID, c.Quantity, c.AddedAt,
		c.UserID, c.ProductID, c.Quantity, c.Quantity,
	)

	if _, err := q.ExecContext(context, query, userID, productID, quantity, dbx.Millis(now)); err != nil {
		return dberr.Wrap(err, "set_cart_quantity")
	}
	return nil
}

// Clear empties the cart of userID.
func (Store) Clear(context context.Context, q dbx.DBTX, userID string) error {
	c := schema.ShopCartItem
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, c.Table, c.UserID)
	if _, err := q.ExecContext(context, query, userID); err != nil {
		return dberr.Wrap(err, "clear_cart")
	}
	return nil
}

// # Stock

// DecrementStock takes quantity units of a live product. It reports false,
// without changing anything, when fewer units remain.
func (Store) DecrementStock(context context.Context, q dbx.DBTX, productID, quantity int64, now time.Time) (bool, error) {
	p := schema.ShopProduct
	query := fmt.Sprintf(`
		UPDATE %s SET %s = %s - ?, %s = ?
		WHERE %s = ? AND %s >= ? AND %s IS NULL`,
		p.Table, p.Stock, p.Stock, p.UpdatedAt,
		p.ID, p.Stock, p.DeletedAt,
	)

	result, err := q.ExecContext(context, query, quantity, dbx.Millis(now), productID, quantity)
	if err != nil {
		return false, dberr.Wrap(err, "decrement_stock")
	}
	ok, err := dbx.ExpectOne(result)
	if err != nil {
		return false, dberr.Wrap(err, "decrement_stock")
	}
	return ok, nil
}

// # Payment Methods

// PaymentMethod loads the stored card of userID. It returns nil when none is stored.
func (Store) PaymentMethod(context context.Context, q dbx.DBTX, userID string) (*PaymentMethod, error) {
	const query = `SELECT card_last4, gateway_ref, created_at FROM payment_methods WHERE user_id = ?`

	method := &PaymentMethod{UserID: userID}
	var createdAt int64
	err := q.QueryRowContext(context, query, userID).Scan(&method.CardLast4, &method.GatewayRef, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err, "find_payment_method")
	}
	method.CreatedAt = dbx.FromMillis(createdAt)
	return method, nil
}

// SavePaymentMethod stores or replaces the card of a user.
func (Store) SavePaymentMethod(context context.Context, q dbx.DBTX, method *PaymentMethod) error {
	const query = `
		INSERT INTO payment_methods (user_id, card_last4, gateway_ref, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			card_last4 = excluded.card_last4,
			gateway_ref = excluded.gateway_ref,
			created_at = excluded.created_at`

	_, err := q.ExecContext(context, query, method.UserID, method.CardLast4, method.GatewayRef, dbx.Millis(method.CreatedAt))
	if err != nil {
		return dberr.Wrap(err, "save_payment_method")
	}
	return nil
}

// # Orders

// InsertOrder writes the order, its lines and one purchase record per product.
func (Store) InsertOrder(context context.Context, q dbx.DBTX, order *Order) error {
	const orderQuery = `
		INSERT INTO orders (id, user_id, subtotal_cents, shipping_cents, total_cents, payment_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	createdAt := dbx.Millis(order.CreatedAt)
	_, err := q.ExecContext(context, orderQuery,
		order.ID, order.UserID, order.SubtotalCents, order.ShippingCents, order.TotalCents, order.PaymentRef, createdAt)
	if err != nil {
		return dberr.Wrap(err, "insert_order")
	}

	const itemQuery = `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price_cents)
		VALUES (?, ?, ?, ?)`

	pu := schema.ShopPurchase
	purchaseQuery := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES (?, ?, ?, ?)`,
		pu.Table, pu.UserID, pu.ProductID, pu.OrderID, pu.PurchasedAt)

	for _, item := range order.Items {
		if _, err := q.ExecContext(context, itemQuery, order.ID, item.ProductID, item.Quantity, item.UnitPriceCents); err != nil {
			return dberr.Wrap(err, "insert_order_item")
		}
		if _, err := q.ExecContext(context, purchaseQuery, order.UserID, item.ProductID, order.ID, createdAt); err != nil {
			return dberr.Wrap(err, "insert_purchase")
		}
	}
	return nil
}

// OrderCount reports how many orders userID has placed.
func (Store) OrderCount(context context.Context, q dbx.DBTX, userID string) (int, error) {
	var count int
	err := q.QueryRowContext(context, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, dberr.Wrap(err, "count_orders")
	}
	return count, nil
}
