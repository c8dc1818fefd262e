// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopfront/internal/platform/middleware"
	"github.com/taibuivan/shopfront/internal/platform/render"
	requestutil "github.com/taibuivan/shopfront/internal/platform/request"
	"github.com/taibuivan/shopfront/internal/platform/respond"
	"github.com/taibuivan/shopfront/internal/platform/validate"
)

const (
	cartPath      = "/cart"
	dashboardPath = "/dashboard"
)

// Handler implements the HTTP layer for the cart and checkout.
type Handler struct {
	service  *Service
	renderer *render.Renderer
}

// NewHandler constructs a cart [Handler].
func NewHandler(service *Service, renderer *render.Renderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

// Routes registers the cart endpoints. All of them require a session.
func (handler *Handler) Routes(router chi.Router) {
	router.Group(func(router chi.Router) {
		router.Use(middleware.RequireAuth)

		router.Get(cartPath, handler.viewCart)
		router.Post(cartPath+"/add", handler.addItem)
		router.Post("/checkout", handler.checkout)
		router.Post("/account/payment-method", handler.savePaymentMethod)
	})
}

// GET /cart.
func (handler *Handler) viewCart(writer http.ResponseWriter, request *http.Request) {
	principal := requestutil.Principal(request)

	cart, err := handler.service.View(request.Context(), principal)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if !respond.WantsHTML(request) {
		respond.OK(writer, cart)
		return
	}

	card, err := handler.service.CardLast4(request.Context(), principal.UserID)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}
	handler.renderer.Page(writer, request, http.StatusOK, "cart", "Cart", render.Data{
		"Cart":    cart,
		"HasCard": card != "",
	})
}

/*
POST /cart/add.

Request:
  - product_id: int64
  - quantity: int64 (Default 1)

Response:
  - 303: Form post, to the cart page
  - 200: JSON, the updated cart
  - 404: Unknown product
  - 409: Not enough stock
*/
func (handler *Handler) addItem(writer http.ResponseWriter, request *http.Request) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).Required(FieldProductID, fields.Get(FieldProductID)).Err(); err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}
	productID, err := fields.Int64(FieldProductID, 0)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}
	quantity, err := fields.Int64(FieldQuantity, 1)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	principal := requestutil.Principal(request)
	if err := handler.service.Add(request.Context(), principal, productID, quantity); err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.IsFormPost(request) {
		respond.SeeOther(writer, request, cartPath)
		return
	}

	cart, err := handler.service.View(request.Context(), principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, cart)
}

/*
POST /checkout.

Request:
  - card_number: string (Optional, overrides the stored card)

Response:
  - 201: {order_id, total_cents}
  - 400: Empty cart or malformed card
  - 402: No payment method or declined
  - 409: Stock ran out
*/
func (handler *Handler) checkout(writer http.ResponseWriter, request *http.Request) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	order, err := handler.service.Checkout(request.Context(), requestutil.Principal(request), fields.Get(FieldCardNumber))
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.IsFormPost(request) {
		handler.renderer.Message(writer, request, http.StatusCreated, "Order placed",
			"Thank you. Your order "+order.ID+" is confirmed.")
		return
	}
	respond.Created(writer, map[string]any{
		"order_id":    order.ID,
		"total_cents": order.TotalCents,
	})
}

// POST /account/payment-method.
func (handler *Handler) savePaymentMethod(writer http.ResponseWriter, request *http.Request) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	method, err := handler.service.SavePaymentMethod(request.Context(), requestutil.Principal(request), fields.Get(FieldCardNumber))
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.IsFormPost(request) {
		respond.SeeOther(writer, request, dashboardPath)
		return
	}
	respond.Created(writer, method)
}
