// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ShopCartItemTable represents the 'cart_items' table
type ShopCartItemTable struct {
	Table     string
	UserID    string
	ProductID string
	Quantity  string
	AddedAt   string
}

// ShopCartItem is the schema definition for cart_items
var ShopCartItem = ShopCartItemTable{
	Table:     "cart_items",
	UserID:    "user_id",
	ProductID: "product_id",
	Quantity:  "quantity",
	AddedAt:   "added_at",
}
