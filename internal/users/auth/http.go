// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/authz"
	"github.com/taibuivan/shopfront/internal/platform/constants"
	"github.com/taibuivan/shopfront/internal/platform/cookie"
	"github.com/taibuivan/shopfront/internal/platform/middleware"
	"github.com/taibuivan/shopfront/internal/platform/render"
	requestutil "github.com/taibuivan/shopfront/internal/platform/request"
	"github.com/taibuivan/shopfront/internal/platform/respond"
	"github.com/taibuivan/shopfront/internal/platform/validate"
)

// PaymentCards reports the stored card shown on the dashboard.
type PaymentCards interface {
	CardLast4(context context.Context, userID string) (string, error)
}

// # Definitions & Constructors

// Handler implements the account entry points: register, login, logout,
// the dashboard and password change.
type Handler struct {
	service   *Service
	renderer  *render.Renderer
	jar       cookie.Jar
	cards     PaymentCards
	minLength int
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, renderer *render.Renderer, jar cookie.Jar, cards PaymentCards) *Handler {
	return &Handler{
		service:   service,
		renderer:  renderer,
		jar:       jar,
		cards:     cards,
		minLength: service.policy.MinLength,
	}
}

// Routes registers the account endpoints on router.
//
// # Endpoints
//   - GET/POST /register
//   - GET/POST /login
//   - POST /logout            (authenticated)
//   - GET /session            (principal and CSRF token for scripts)
//   - GET /dashboard          (authenticated)
//   - POST /account/password  (authenticated)
func (handler *Handler) Routes(router chi.Router) {
	router.Get("/register", handler.registerPage)
	router.Post("/register", handler.register)
	router.Get("/login", handler.loginPage)
	router.Post("/login", handler.login)
	router.Get("/session", handler.session)

	router.With(middleware.Authorize(authz.ActionLogout)).Post("/logout", handler.logout)
	router.With(middleware.Authorize(authz.ActionAccountView)).Get("/dashboard", handler.dashboard)
	router.With(middleware.Authorize(authz.ActionAccountPassword)).Post("/account/password", handler.changePassword)
}

// # Registration

func (handler *Handler) registerPage(writer http.ResponseWriter, request *http.Request) {
	handler.renderer.Page(writer, request, http.StatusOK, "register", "Register", render.Data{"MinLength": handler.minLength})
}

/*
Register handles the creation of a new account.

POST /register

Response:
  - 303: Form post, redirect to /login
  - 201: JSON, the created user
  - 400: Weak password or bad username
  - 409: Username already taken
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	user, err := handler.service.Register(request.Context(), fields.Get(FieldUsername), fields.Get(FieldPassword))
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if respond.IsFormPost(request) {
		respond.SeeOther(writer, request, constants.LoginPath)
		return
	}
	respond.Created(writer, user)
}

// # Login & Logout

func (handler *Handler) loginPage(writer http.ResponseWriter, request *http.Request) {
	next := requestutil.SafeNext(request.URL.Query().Get(FieldNext), "")
	handler.renderer.Page(writer, request, http.StatusOK, "login", "Log in", render.Data{"Next": next, "Error": ""})
}

/*
Login authenticates a user and establishes a session.

POST /login

Description: Sets the session cookie and redirects form posts to a safe
"next" path or the dashboard. Unknown users and wrong passwords receive the
same 401.

Response:
  - 303: Form post, redirect
  - 200: JSON, user and CSRF token
  - 401: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, fields.Get(FieldUsername)).
		Required(FieldPassword, fields.Get(FieldPassword))
	if err := validator.Err(); err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	result, err := handler.service.Login(request.Context(),
		fields.Get(FieldUsername),
		fields.Get(FieldPassword),
		middleware.RequestMeta(request),
	)
	next := requestutil.SafeNext(fields.Get(FieldNext), constants.DefaultLandingPath)

	if err != nil {
		if respond.IsFormPost(request) && apperr.HasCode(err, apperr.CodeInvalidCredentials) {
			handler.renderer.Page(writer, request, http.StatusUnauthorized, "login", "Log in", render.Data{
				"Next":  requestutil.SafeNext(fields.Get(FieldNext), ""),
				"Error": apperr.InvalidCredentials().Message,
			})
			return
		}
		handler.renderer.Fail(writer, request, err)
		return
	}

	handler.jar.Set(writer, result.Session.Token)

	if respond.IsFormPost(request) {
		respond.SeeOther(writer, request, next)
		return
	}
	respond.OK(writer, map[string]any{
		"user":       result.User,
		"csrf_token": result.Session.CSRFToken,
		"expires_at": result.Session.ExpiresAt.Format(time.RFC3339),
	})
}

/*
Logout terminates the current session and clears the cookie.

POST /logout

Response:
  - 303: Form post, redirect to /
  - 204: Otherwise
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	if err := handler.service.Logout(request.Context(), principal); err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	handler.jar.Clear(writer)

	if respond.IsFormPost(request) {
		respond.SeeOther(writer, request, "/")
		return
	}
	respond.NoContent(writer)
}

/*
Session describes the current principal for scripts.

GET /session

Response:
  - 200: {authenticated, user_id, username, role, csrf_token}
*/
func (handler *Handler) session(writer http.ResponseWriter, request *http.Request) {
	principal := requestutil.Principal(request)
	writer.Header().Set("Cache-Control", "no-store")

	if !principal.IsAuthenticated() {
		respond.OK(writer, map[string]any{"authenticated": false})
		return
	}

	respond.OK(writer, map[string]any{
		"authenticated": true,
		"user_id":       principal.UserID,
		"username":      principal.Username,
		"role":          principal.Role,
		"csrf_token":    principal.CSRFToken,
	})
}

// # Account

/*
Dashboard greets the signed-in user.

GET /dashboard
*/
func (handler *Handler) dashboard(writer http.ResponseWriter, request *http.Request) {
	principal := requestutil.Principal(request)

	last4 := ""
	if handler.cards != nil {
		card, err := handler.cards.CardLast4(request.Context(), principal.UserID)
		if err != nil {
			handler.renderer.Fail(writer, request, err)
			return
		}
		last4 = card
	}

	handler.renderer.Page(writer, request, http.StatusOK, "dashboard", "Dashboard", render.Data{"Card": last4})
}

/*
ChangePassword replaces the caller's password.

POST /account/password

Description: All sessions are revoked; the caller receives a fresh cookie
and CSRF token.

Response:
  - 303: Form post, back to the dashboard
  - 200: JSON, the new CSRF token
  - 401: Current password wrong
  - 400: New password rejected by policy
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	fields, err := requestutil.Fields(request)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	result, err := handler.service.ChangePassword(request.Context(), principal,
		fields.Get(FieldCurrentPassword),
		fields.Get(FieldNewPassword),
		middleware.RequestMeta(request),
	)
	if err != nil {
		handler.renderer.Fail(writer, request, err)
		return
	}

	handler.jar.Set(writer, result.Session.Token)

	if respond.IsFormPost(request) {
		respond.SeeOther(writer, request, constants.DefaultLandingPath)
		return
	}
	respond.OK(writer, map[string]any{"csrf_token": result.Session.CSRFToken})
}
