// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

import (
	"context"
	stdcontext "context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/authz"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/platform/sec"
	"github.com/taibuivan/shopfront/internal/platform/validate"
	"github.com/taibuivan/shopfront/internal/shop/catalog"
)

// Service orchestrates review submission and listing.
type Service struct {
	db         *dbx.DB
	repository Repository
	now        func() time.Time
}

// NewService constructs a new [Service].
func NewService(db *dbx.DB, repository Repository) *Service {
	return &Service{db: db, repository: repository, now: time.Now}
}

/*
Create stores a review from a verified buyer.

Description: Rating and text are validated before purchase state is read.
The purchase check, the prior-review check and the insert share one
transaction.

Parameters:
  - context: context.Context
  - principal: sec.Principal
  - productID: int64
  - rating: int (1..5)
  - text: string

Returns:
  - *Review: The stored review
  - error: 401, 400, 404, 403 (no purchase) or 409 (already reviewed)
*/
func (service *Service) Create(context context.Context, principal sec.Principal, productID int64, rating int, text string) (*Review, error) {
	if !principal.IsAuthenticated() {
		return nil, apperr.Unauthenticated()
	}

	text = strings.TrimSpace(text)
	if err := (&validate.Validator{}).MaxLen(FieldText, text, TextMaxLength).Err(); err != nil {
		return nil, err
	}

	review := &Review{
		UserID:    principal.UserID,
		ProductID: productID,
		Rating:    rating,
		Text:      text,
		CreatedAt: service.now(),
	}

	err := dbx.WithTx(context, service.db, func(context stdcontext.Context, tx dbx.DBTX) error {
		live, err := service.repository.ProductExists(context, tx, productID)
		if err != nil {
			return err
		}
		if !live {
			return apperr.NotFound("Product")
		}

		purchased, err := service.repository.HasPurchase(context, tx, principal.UserID, productID)
		if err != nil {
			return err
		}
		reviewed, err := service.repository.HasReview(context, tx, principal.UserID, productID)
		if err != nil {
			return err
		}

		err = authz.Check(principal, authz.ActionReviewCreate, authz.Resource{
			HasPurchase:    purchased,
			HasPriorReview: reviewed,
			Rating:         rating,
			Text:           text,
		})
		if err != nil {
			return err
		}

		return service.repository.Create(context, tx, review)
	})
	if err != nil {
		if apperr.HasCode(err, apperr.CodeConflict) {
			return nil, apperr.Conflict("Product already reviewed").WithCause(err)
		}
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "review_created",
		slog.Int64("product_id", productID),
		slog.Int("rating", rating),
	)
	return review, nil
}

// ListForProduct implements [catalog.ReviewLister].
func (service *Service) ListForProduct(context context.Context, productID int64) ([]catalog.ReviewView, error) {
	return service.repository.ListForProduct(context, service.db, productID)
}
