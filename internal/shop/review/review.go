// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package review lets verified buyers rate products, once per product.
package review

import (
	"context"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/shop/catalog"
)

const (
	FieldProductID = "product_id"
	FieldRating    = "rating"
	FieldText      = "text"
)

// TextMaxLength bounds the body of a review.
const TextMaxLength = 2000

// Review is one stored review.
type Review struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	ProductID int64     `json:"product_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository is the persistence contract for reviews. Methods take the
// handle to run on so checks and the insert share one transaction.
type Repository interface {
	ProductExists(context context.Context, q dbx.DBTX, productID int64) (bool, error)
	HasPurchase(context context.Context, q dbx.DBTX, userID string, productID int64) (bool, error)
	HasReview(context context.Context, q dbx.DBTX, userID string, productID int64) (bool, error)
	Create(context context.Context, q dbx.DBTX, review *Review) error
	ListForProduct(context context.Context, q dbx.DBTX, productID int64) ([]catalog.ReviewView, error)
}
