// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/database/schema"
	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
)

// likeEscaper neutralises LIKE metacharacters in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SQLRepository implements [Repository] on the relational store.
type SQLRepository struct {
	db *dbx.DB
}

// NewRepository constructs a new [SQLRepository].
func NewRepository(db *dbx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

var productColumns = schema.List("", schema.ShopProduct.Columns())

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		product              Product
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&product.ID, &product.Name, &product.Slug, &product.Description,
		&product.PriceCents, &product.Stock, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	product.CreatedAt = dbx.FromMillis(createdAt)
	product.UpdatedAt = dbx.FromMillis(updatedAt)
	return &product, nil
}

// Create inserts product and fills its generated ID.
func (repository *SQLRepository) Create(context context.Context, product *Product) error {
	p := schema.ShopProduct
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING %s`,
		p.Table, p.Name, p.Slug, p.Description, p.PriceCents, p.Stock, p.CreatedAt, p.UpdatedAt, p.ID,
	)

	err := repository.db.QueryRowContext(context, query,
		product.Name, product.Slug, product.Description, product.PriceCents, product.Stock,
		dbx.Millis(product.CreatedAt), dbx.Millis(product.UpdatedAt),
	).Scan(&product.ID)
	if err != nil {
		return dberr.Wrap(err, "create_product")
	}
	return nil
}

// Update overwrites the editable attributes of a live product.
func (repository *SQLRepository) Update(context context.Context, product *Product) error {
	p := schema.ShopProduct
	query := fmt.Sprintf(`
		UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?
		WHERE %s = ? AND %s IS NULL`,
		p.Table, p.Name, p.Slug, p.Description, p.PriceCents, p.Stock, p.UpdatedAt,
		p.ID, p.DeletedAt,
	)

	result, err := repository.db.ExecContext(context, query,
		product.Name, product.Slug, product.Description, product.PriceCents, product.Stock,
		dbx.Millis(product.UpdatedAt), product.ID,
	)
	return expectProduct(result, err, "update_product")
}

// SoftDelete hides a product. Orders and reviews keep referencing it.
func (repository *SQLRepository) SoftDelete(context context.Context, id int64, now time.Time) error {
	p := schema.ShopProduct
	query := fmt.Sprintf(`UPDATE %s SET %s = ?, %s = ? WHERE %s = ? AND %s IS NULL`,
		p.Table, p.DeletedAt, p.UpdatedAt, p.ID, p.DeletedAt)

	millis := dbx.Millis(now)
	result, err := repository.db.ExecContext(context, query, millis, millis, id)
	return expectProduct(result, err, "delete_product")
}

func expectProduct(result sql.Result, err error, action string) error {
	if err != nil {
		return dberr.Wrap(err, action)
	}
	ok, err := dbx.ExpectOne(result)
	if err != nil {
		return dberr.Wrap(err, action)
	}
	if !ok {
		return dberr.ErrNotFound
	}
	return nil
}

// FindByID loads a live product.
func (repository *SQLRepository) FindByID(context context.Context, id int64) (*Product, error) {
	p := schema.ShopProduct
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s IS NULL`,
		productColumns, p.Table, p.ID, p.DeletedAt)

	product, err := scanProduct(repository.db.QueryRowContext(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find_product")
	}
	return product, nil
}

// List pages through live products by name and reports the total count.
func (repository *SQLRepository) List(context context.Context, limit, offset int) ([]*Product, int, error) {
	p := schema.ShopProduct

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s IS NULL`, p.Table, p.DeletedAt)
	if err := repository.db.QueryRowContext(context, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_products")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NULL ORDER BY %s ASC, %s ASC LIMIT ? OFFSET ?`,
		productColumns, p.Table, p.DeletedAt, p.Name, p.ID)

	products, err := repository.query(context, "list_products", query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

/*
Search ranks live products against a free-text query.

Description: Rank 3 is an exact name match, 2 a name prefix, 1 a name
substring and 0 a description substring. Ties order by name. Matching is
case-insensitive and LIKE metacharacters in the query match literally.

Parameters:
  - context: context.Context
  - query: string (Trimmed, non-empty)
  - limit: int

Returns:
  - []*Product: Ranked matches
  - error: Storage failures
*/
func (repository *SQLRepository) Search(context context.Context, query string, limit int) ([]*Product, error) {
	p := schema.ShopProduct
	statement := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s IS NULL
		  AND (LOWER(%s) LIKE ? ESCAPE '\' OR LOWER(%s) LIKE ? ESCAPE '\')
		ORDER BY
			CASE
				WHEN LOWER(%s) = ? THEN 3
				WHEN LOWER(%s) LIKE ? ESCAPE '\' THEN 2
				WHEN LOWER(%s) LIKE ? ESCAPE '\' THEN 1
				ELSE 0
			END DESC,
			%s ASC, %s ASC
		LIMIT ?`,
		productColumns, p.Table,
		p.DeletedAt,
		p.Name, p.Description,
		p.Name, p.Name, p.Name,
		p.Name, p.ID,
	)

	folded := strings.ToLower(query)
	escaped := likeEscaper.Replace(folded)
	contains := "%" + escaped + "%"
	prefix := escaped + "%"

	return repository.query(context, "search_products", statement,
		contains, contains, folded, prefix, contains, limit)
}

func (repository *SQLRepository) query(context context.Context, action, query string, args ...any) ([]*Product, error) {
	rows, err := repository.db.QueryContext(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	products := make([]*Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, dberr.Wrap(err, action)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return products, nil
}
