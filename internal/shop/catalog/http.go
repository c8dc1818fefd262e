// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopfront/internal/platform/authz"
	"github.com/taibuivan/shopfront/internal/platform/middleware"
	"github.com/taibuivan/shopfront/internal/platform/render"
	requestutil "github.com/taibuivan/shopfront/internal/platform/request"
	"github.com/taibuivan/shopfront/internal/platform/respond"
	"github.com/taibuivan/shopfront/internal/platform/validate"
	"github.com/taibuivan/shopfront/pkg/pagination"
)

// adminProductsPath is where admin form posts land after success.
const adminProductsPath = "/admin/products"

// ReviewView is one review as shown on a product page.
type ReviewView struct {
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewLister supplies the reviews of a product page.
type ReviewLister interface {
	ListForProduct(context context.Context, productID int64) ([]ReviewView, error)
}

// # Handler Implementation

// Handler implements the HTTP layer for catalog browsing and administration.
type Handler struct {
	service  *Service
	renderer *render.Renderer
	reviews  ReviewLister
}

// NewHandler constructs a catalog [Handler].
func NewHandler(service *Service, renderer *render.Renderer, reviews ReviewLister) *Handler {
	return &Handler{service: service, renderer: renderer, reviews: reviews}
}

// Routes registers the catalog endpoints.
//
// # Routing Strategy
//
//   - Discovery (Public): /products, /products/{id}, /search.
//   - Management (Restricted): /admin/products requires the admin role.
func (handler *Handler) Routes(router chi.Router) {
	router.Get("/products", handler.listProducts)
	router.Get("/products/{id}", handler.getProduct)
	router.Get("/search", handler.search)

	router.With(middleware.Authorize(authz.ActionAdminProductList)).Get(adminProductsPath, handler.adminList)
	router.With(middleware.Authorize(authz.ActionAdminProductCreate)).Post(adminProductsPath, handler.createProduct)
	router.With(middleware.Authorize(authz.ActionAdminProductUpdate)).Put(adminProductsPath+"/{id}", handler.updateProduct)
	router.With(middleware.Authorize(authz.ActionAdminProductDelete)).Delete(adminProductsPath+"/{id}", handler.deleteProduct)
}

// # Discovery Endpoints

/*
GET /products.

Request:
  - page: int
  - limit: int

Response:
  - 200: Paginated products (JSON) or the product list page
*/
func (handler *Handler) listProducts(writer http.ResponseWriter, request *http.Request) {
	products, meta, err := handler.service.List(request.Context(), pagination.FromRequest(request))
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.WantsHTML(request) {
		handler.renderer.Page(writer, request, http.StatusOK, "products", "Products", render.Data{"Products": products})
		return
	}
	respond.Paginated(writer, products, meta)
}

/*
GET /products/{id}.

Response:
  - 200: Product with its reviews
  - 404: Unknown or deleted product
*/
func (handler *Handler) getProduct(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id", "Product")
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	product, err := handler.service.Get(request.Context(), id)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	reviews := []ReviewView{}
	if handler.reviews != nil {
		if reviews, err = handler.reviews.ListForProduct(request.Context(), id); err != nil {
			handler.renderer.Fail(writer, request, err)
			return
		}
	}

	if respond.WantsHTML(request) {
		handler.renderer.Page(writer, request, http.StatusOK, "product", product.Name, render.Data{
			"Product": product,
			"Reviews": reviews,
		})
		return
	}
	respond.OK(writer, map[string]any{"product": product, "reviews": reviews})
}

/*
GET /search?q=.

Description: Ranked by exact name, name prefix, name substring, then
description substring.
*/
func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query().Get(FieldQuery)

	products, err := handler.service.Search(request.Context(), query)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.WantsHTML(request) {
		handler.renderer.Page(writer, request, http.StatusOK, "products", "Search", render.Data{
			"Products": products,
			"Query":    query,
		})
		return
	}
	respond.OK(writer, products)
}

// # Management Endpoints

func (handler *Handler) adminList(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	params.Limit = pagination.MaxLimit

	products, meta, err := handler.service.List(request.Context(), params)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.WantsHTML(request) {
		handler.renderer.Page(writer, request, http.StatusOK, "admin_products", "Catalog", render.Data{"Products": products})
		return
	}
	respond.Paginated(writer, products, meta)
}

/*
POST /admin/products.

Response:
  - 303: Form post, back to the admin list
  - 201: JSON, the created product
  - 400: Invalid attributes
  - 403: Not an admin
*/
func (handler *Handler) createProduct(writer http.ResponseWriter, request *http.Request) {
	input, err := readInput(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	product, err := handler.service.Create(request.Context(), requestutil.Principal(request), input)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.IsFormPost(request) {
		respond.SeeOther(writer, request, adminProductsPath)
		return
	}
	respond.Created(writer, product)
}

// PUT /admin/products/{id}.
func (handler *Handler) updateProduct(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id", "Product")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	input, err := readInput(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	product, err := handler.service.Update(request.Context(), requestutil.Principal(request), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, product)
}

// DELETE /admin/products/{id}.
func (handler *Handler) deleteProduct(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id", "Product")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), requestutil.Principal(request), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// readInput decodes the product attributes from a form or JSON body.
func readInput(request *http.Request) (Input, error) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		return Input{}, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldPriceCents, fields.Get(FieldPriceCents)).
		Required(FieldStock, fields.Get(FieldStock))
	if err := validator.Err(); err != nil {
		return Input{}, err
	}

	price, err := fields.Int64(FieldPriceCents, 0)
	if err != nil {
		return Input{}, err
	}
	stock, err := fields.Int64(FieldStock, 0)
	if err != nil {
		return Input{}, err
	}

	return Input{
		Name:        fields.Get(FieldName),
		Description: fields.Get(FieldDescription),
		PriceCents:  price,
		Stock:       stock,
	}, nil
}
