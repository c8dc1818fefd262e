// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopfront/internal/platform/middleware"
	"github.com/taibuivan/shopfront/internal/platform/render"
	requestutil "github.com/taibuivan/shopfront/internal/platform/request"
	"github.com/taibuivan/shopfront/internal/platform/respond"
	"github.com/taibuivan/shopfront/internal/platform/validate"
)

// Handler implements the HTTP layer for reviews.
type Handler struct {
	service  *Service
	renderer *render.Renderer
}

// NewHandler constructs a review [Handler].
func NewHandler(service *Service, renderer *render.Renderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

// Routes registers the review endpoints.
func (handler *Handler) Routes(router chi.Router) {
	router.With(middleware.RequireAuth).Post("/reviews", handler.createReview)
}

/*
POST /reviews.

Request:
  - product_id: int64
  - rating: int (1..5)
  - text: string

Response:
  - 201: The review (JSON) or a confirmation page
  - 400: Invalid rating or empty text
  - 403: No purchase of the product
  - 409: Already reviewed
*/
func (handler *Handler) createReview(writer http.ResponseWriter, request *http.Request) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldProductID, fields.Get(FieldProductID)).
		Required(FieldRating, fields.Get(FieldRating))
	if err := validator.Err(); err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	productID, err := fields.Int64(FieldProductID, 0)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}
	rating, err := fields.Int64(FieldRating, 0)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	review, err := handler.service.Create(request.Context(), requestutil.Principal(request), productID, int(rating), fields.Get(FieldText))
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.IsFormPost(request) {
		handler.renderer.Message(writer, request, http.StatusCreated, "Review posted",
			"Thanks for rating this product "+strconv.Itoa(review.Rating)+"/5.")
		return
	}
	respond.Created(writer, review)
}
