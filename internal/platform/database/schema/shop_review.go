// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ShopReviewTable represents the 'reviews' table
type ShopReviewTable struct {
	Table     string
	ID        string
	UserID    string
	ProductID string
	Rating    string
	Body      string
	CreatedAt string
}

// ShopReview is the schema definition for reviews
var ShopReview = ShopReviewTable{
	Table:     "reviews",
	ID:        "id",
	UserID:    "user_id",
	ProductID: "product_id",
	Rating:    "rating",
	Body:      "body",
	CreatedAt: "created_at",
}

// ShopPurchaseTable represents the 'purchases' table
type ShopPurchaseTable struct {
	Table       string
	UserID      string
	ProductID   string
	OrderID     string
	PurchasedAt string
}

// ShopPurchase is the schema definition for purchases
var ShopPurchase = ShopPurchaseTable{
	Table:       "purchases",
	UserID:      "user_id",
	ProductID:   "product_id",
	OrderID:     "order_id",
	PurchasedAt: "purchased_at",
}
