// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package catalog manages the product catalog: public browsing and search,
// and administrator CRUD.
package catalog

import (
	"context"
	"time"

	"github.com/taibuivan/shopfront/pkg/money"
)

// Field names shared by forms and JSON bodies.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPriceCents  = "price_cents"
	FieldStock       = "stock"
	FieldQuery       = "q"
)

// Input limits.
const (
	NameMaxLength        = 200
	DescriptionMaxLength = 4000
	SearchMaxLength      = 100
	SearchLimit          = 50
)

// Product is a catalog entry. Prices are integer cents.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int64     `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceLabel renders the price for templates.
func (product Product) PriceLabel() string {
	return money.Format(product.PriceCents)
}

// Input carries the editable product attributes.
type Input struct {
	Name        string
	Description string
	PriceCents  int64
	Stock       int64
}

// Repository persists products. Deleted products are hidden from every read.
type Repository interface {
	Create(context context.Context, product *Product) error
	Update(context context.Context, product *Product) error
	SoftDelete(context context.Context, id int64, now time.Time) error
	FindByID(context context.Context, id int64) (*Product, error)
	List(context context.Context, limit, offset int) ([]*Product, int, error)
	Search(context context.Context, query string, limit int) ([]*Product, error)
}
