// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

import (
	"context"
	"fmt"

	"github.com/taibuivan/shopfront/internal/platform/database/schema"
	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/shop/catalog"
)

// SQLRepository implements [Repository] on the relational store.
type SQLRepository struct{}

// NewRepository constructs a new [SQLRepository].
func NewRepository() SQLRepository {
	return SQLRepository{}
}

func exists(context context.Context, q dbx.DBTX, action, query string, args ...any) (bool, error) {
	var found bool
	if err := q.QueryRowContext(context, "SELECT EXISTS ("+query+")", args...).Scan(&found); err != nil {
		return false, dberr.Wrap(err, action)
	}
	return found, nil
}

// ProductExists reports whether productID is a live product.
func (SQLRepository) ProductExists(context context.Context, q dbx.DBTX, productID int64) (bool, error) {
	p := schema.ShopProduct
	return exists(context, q, "review_product_exists",
		fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = ? AND %s IS NULL`, p.Table, p.ID, p.DeletedAt), productID)
}

// HasPurchase reports whether userID has a completed purchase of productID.
func (SQLRepository) HasPurchase(context context.Context, q dbx.DBTX, userID string, productID int64) (bool, error) {
	pu := schema.ShopPurchase
	return exists(context, q, "review_has_purchase",
		fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = ? AND %s = ?`, pu.Table, pu.UserID, pu.ProductID), userID, productID)
}

// HasReview reports whether userID already reviewed productID.
func (SQLRepository) HasReview(context context.Context, q dbx.DBTX, userID string, productID int64) (bool, error) {
	r := schema.ShopReview
	return exists(context, q, "review_has_review",
		fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = ? AND %s = ?`, r.Table, r.UserID, r.ProductID), userID, productID)
}

// Create inserts review. The (user, product) unique key rejects a duplicate
// that slipped past HasReview with a Conflict.
func (SQLRepository) Create(context context.Context, q dbx.DBTX, review *Review) error {
	r := schema.ShopReview
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?)
		RETURNING %s`,
		r.Table, r.UserID, r.ProductID, r.Rating, r.Body, r.CreatedAt, r.ID,
	)

	err := q.QueryRowContext(context, query,
		review.UserID, review.ProductID, review.Rating, review.Text, dbx.Millis(review.CreatedAt),
	).Scan(&review.ID)
	if err != nil {
		return dberr.Wrap(err, "create_review")
	}
	return nil
}

// ListForProduct returns the reviews of a product, newest first, with author names.
func (SQLRepository) ListForProduct(context context.Context, q dbx.DBTX, productID int64) ([]catalog.ReviewView, error) {
	r := schema.ShopReview
	query := fmt.Sprintf(`
		SELECT u.username, r.%s, r.%s, r.%s
		FROM %s r
		JOIN users u ON u.id = r.%s
		WHERE r.%s = ?
		ORDER BY r.%s DESC, r.%s DESC`,
		r.Rating, r.Body, r.CreatedAt,
		r.Table,
		r.UserID,
		r.ProductID,
		r.CreatedAt, r.ID,
	)

	rows, err := q.QueryContext(context, query, productID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_reviews")
	}
	defer rows.Close()

	views := make([]catalog.ReviewView, 0)
	for rows.Next() {
		var (
			view      catalog.ReviewView
			createdAt int64
		)
		if err := rows.Scan(&view.Username, &view.Rating, &view.Text, &createdAt); err != nil {
			return nil, dberr.Wrap(err, "list_reviews")
		}
		view.CreatedAt = dbx.FromMillis(createdAt)
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_reviews")
	}
	return views, nil
}
