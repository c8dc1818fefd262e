// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package newsletter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopfront/internal/platform/authz"
	"github.com/taibuivan/shopfront/internal/platform/middleware"
	"github.com/taibuivan/shopfront/internal/platform/render"
	requestutil "github.com/taibuivan/shopfront/internal/platform/request"
	"github.com/taibuivan/shopfront/internal/platform/respond"
	"github.com/taibuivan/shopfront/internal/users/actiontoken"
)

// Handler exposes subscription, confirmation and unsubscribe endpoints.
type Handler struct {
	service  *Service
	renderer *render.Renderer
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, renderer *render.Renderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

// Routes registers the newsletter endpoints.
//
// # Endpoints
//   - POST /newsletter/subscribe
//   - GET/POST /newsletter/confirm
//   - GET/POST /unsubscribe
//
// Every route requires a session. Link clicks from anonymous browsers are
// sent to the login page and come back to the same link afterwards.
func (handler *Handler) Routes(router chi.Router) {
	router.With(middleware.Authorize(authz.ActionNewsletterSubscribe)).Post("/newsletter/subscribe", handler.subscribe)

	router.Group(func(router chi.Router) {
		router.Use(middleware.RequireAuth)
		router.Get("/newsletter/confirm", handler.linkForm("newsletter_confirm", "Confirm subscription", actiontoken.ActionConfirmEmail))
		router.Post("/newsletter/confirm", handler.confirm)
		router.Get("/unsubscribe", handler.linkForm("unsubscribe", "Unsubscribe", actiontoken.ActionUnsubscribe))
		router.Post("/unsubscribe", handler.unsubscribe)
	})
}

/*
Subscribe records an address and sends it a confirmation link.

POST /newsletter/subscribe

Response:
  - 200: Form post, confirmation page
  - 202: JSON, pending confirmation
  - 400: Invalid address
*/
func (handler *Handler) subscribe(writer http.ResponseWriter, request *http.Request) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if _, err := handler.service.Subscribe(request.Context(), requestutil.Principal(request), fields.Get(FieldEmail)); err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.IsFormPost(request) {
		handler.renderer.Message(writer, request, http.StatusOK, "Almost done", "Check your inbox for a confirmation link.")
		return
	}
	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: map[string]string{"status": "pending_confirmation"}})
}

// linkForm renders the page behind an emailed link once the token checks out.
func (handler *Handler) linkForm(page, title string, action actiontoken.Action) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		token := request.URL.Query().Get(FieldToken)

		if err := handler.service.CheckToken(request.Context(), requestutil.Principal(request), token, action); err != nil {
			handler.renderer.Fail(writer, request, err)
			return
		}

		handler.renderer.Page(writer, request, http.StatusOK, page, title, render.Data{"Token": token})
	}
}

/*
Confirm verifies the subscriber's address.

POST /newsletter/confirm

Response:
  - 200: Confirmed
  - 403: Token belongs to another user
  - 404/409/410: Unknown, used or expired link
*/
func (handler *Handler) confirm(writer http.ResponseWriter, request *http.Request) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if err := handler.service.Confirm(request.Context(), requestutil.Principal(request), fields.Get(FieldToken)); err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.IsFormPost(request) {
		handler.renderer.Message(writer, request, http.StatusOK, "Subscribed", "Your subscription is confirmed.")
		return
	}
	respond.OK(writer, map[string]bool{"confirmed": true})
}

/*
Unsubscribe redeems an unsubscribe link.

POST /unsubscribe

Response:
  - 200: Unsubscribed
  - 403: Token belongs to another user
  - 404/409/410: Unknown, used or expired link
*/
func (handler *Handler) unsubscribe(writer http.ResponseWriter, request *http.Request) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	principal := requestutil.Principal(request)
	if err := handler.service.Unsubscribe(request.Context(), principal, fields.Get(FieldToken), fields.Get(FieldReason)); err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.IsFormPost(request) {
		handler.renderer.Message(writer, request, http.StatusOK, "Unsubscribed", "You will no longer receive the newsletter.")
		return
	}
	respond.OK(writer, map[string]bool{"subscribed": false})
}
