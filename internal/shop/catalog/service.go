// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/authz"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/sec"
	"github.com/taibuivan/shopfront/internal/platform/validate"
	"github.com/taibuivan/shopfront/pkg/pagination"
	"github.com/taibuivan/shopfront/pkg/slug"
)

// # Service Layer

// Service orchestrates catalog browsing and administration.
type Service struct {
	repository Repository
	now        func() time.Time
}

// NewService constructs a new [Service].
func NewService(repository Repository) *Service {
	return &Service{repository: repository, now: time.Now}
}

// # Product Lookups

// List returns one page of live products and the pagination metadata.
func (service *Service) List(context context.Context, params pagination.Params) ([]*Product, pagination.Meta, error) {
	products, total, err := service.repository.List(context, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return products, pagination.NewMeta(params, total), nil
}

// Get returns a live product or a 404.
func (service *Service) Get(context context.Context, id int64) (*Product, error) {
	product, err := service.repository.FindByID(context, id)
	if errors.Is(err, dberr.ErrNotFound) {
		return nil, apperr.NotFound("Product")
	}
	return product, err
}

// Search ranks products for a free-text query. A blank query finds nothing.
func (service *Service) Search(context context.Context, query string) ([]*Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Product{}, nil
	}
	if err := (&validate.Validator{}).MaxLen(FieldQuery, query, SearchMaxLength).Err(); err != nil {
		return nil, err
	}
	return service.repository.Search(context, query, SearchLimit)
}

// # Product Management

/*
Create adds a product to the catalog.

Description: Admin only. The slug is derived from the name.

Parameters:
  - context: context.Context
  - principal: sec.Principal
  - input: Input

Returns:
  - *Product: The stored product with its ID
  - error: Forbidden, validation or storage errors
*/
func (service *Service) Create(context context.Context, principal sec.Principal, input Input) (*Product, error) {
	if err := authz.Check(principal, authz.ActionAdminProductCreate, authz.Resource{}); err != nil {
		return nil, err
	}

	input = normalize(input)
	if err := check(input); err != nil {
		return nil, err
	}

	now := service.now()
	product := &Product{
		Name:        input.Name,
		Slug:        slug.From(input.Name),
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := service.repository.Create(context, product); err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "product_created",
		slog.Int64("product_id", product.ID),
		slog.String("admin_id", principal.UserID),
	)
	return product, nil
}

// Update replaces the attributes of a product. Admin only.
func (service *Service) Update(context context.Context, principal sec.Principal, id int64, input Input) (*Product, error) {
	if err := authz.Check(principal, authz.ActionAdminProductUpdate, authz.Resource{}); err != nil {
		return nil, err
	}

	input = normalize(input)
	if err := check(input); err != nil {
		return nil, err
	}

	product, err := service.Get(context, id)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Slug = slug.From(input.Name)
	product.Description = input.Description
	product.PriceCents = input.PriceCents
	product.Stock = input.Stock
	product.UpdatedAt = service.now()

	if err := service.repository.Update(context, product); err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.NotFound("Product")
		}
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "product_updated",
		slog.Int64("product_id", product.ID),
		slog.String("admin_id", principal.UserID),
	)
	return product, nil
}

// Delete hides a product from the catalog. Admin only.
func (service *Service) Delete(context context.Context, principal sec.Principal, id int64) error {
	if err := authz.Check(principal, authz.ActionAdminProductDelete, authz.Resource{}); err != nil {
		return err
	}

	if err := service.repository.SoftDelete(context, id, service.now()); err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return apperr.NotFound("Product")
		}
		return err
	}

	ctxutil.GetLogger(context).InfoContext(context, "product_deleted",
		slog.Int64("product_id", id),
		slog.String("admin_id", principal.UserID),
	)
	return nil
}

func normalize(input Input) Input {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	return input
}

func check(input Input) error {
	return (&validate.Validator{}).
		Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, NameMaxLength).
		MaxLen(FieldDescription, input.Description, DescriptionMaxLength).
		NonNegative(FieldPriceCents, input.PriceCents).
		NonNegative(FieldStock, input.Stock).
		Err()
}
