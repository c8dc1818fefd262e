// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ShopProductTable represents the 'products' table
type ShopProductTable struct {
	Table       string
	ID          string
	Name        string
	Slug        string
	Description string
	PriceCents  string
	Stock       string
	CreatedAt   string
	UpdatedAt   string
	DeletedAt   string
}

// ShopProduct is the schema definition for products
var ShopProduct = ShopProductTable{
	Table:       "products",
	ID:          "id",
	Name:        "name",
	Slug:        "slug",
	Description: "description",
	PriceCents:  "price_cents",
	Stock:       "stock",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
	DeletedAt:   "deleted_at",
}

// Columns returns the columns read into a product, in scan order
func (t ShopProductTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Slug, t.Description, t.PriceCents, t.Stock, t.CreatedAt, t.UpdatedAt,
	}
}
