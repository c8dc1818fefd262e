// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition point for the HTTP transport (chi router).
  - Identity enters requests only through the session cookie middleware.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/config"
	"github.com/taibuivan/shopfront/internal/platform/constants"
	"github.com/taibuivan/shopfront/internal/platform/cookie"
	"github.com/taibuivan/shopfront/internal/platform/csrf"
	"github.com/taibuivan/shopfront/internal/platform/middleware"
	"github.com/taibuivan/shopfront/internal/platform/render"
)

// RouteRegistrar is implemented by every domain handler set.
type RouteRegistrar interface {
	Routes(router chi.Router)
}

// # Handler Registry

// Handlers groups the boundary collaborators and the domain handler sets.
type Handlers struct {
	// Liveness is the /health handler; it answers 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; it answers 200 when every store responds.
	Readiness http.HandlerFunc

	Authenticator middleware.SessionAuthenticator
	Jar           cookie.Jar
	Renderer      *render.Renderer

	Auth       RouteRegistrar
	Newsletter RouteRegistrar
	Catalog    RouteRegistrar
	Cart       RouteRegistrar
	Review     RouteRegistrar
}

// # Router

/*
NewRouter builds the chi router with the full middleware chain.

Order matters: the request id and logger exist before anything can fail,
the principal is resolved before the CSRF guard compares tokens, and the
guard runs before any handler can change state.
*/
func NewRouter(cfg *config.Config, logger *slog.Logger, h Handlers) http.Handler {
	router := chi.NewRouter()

	// # Middleware Chain
	if cfg.TrustProxyHeaders {
		router.Use(chimw.RealIP)
	}
	router.Use(chimw.CleanPath)
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.PanicRecovery)
	router.Use(middleware.SecurityHeaders)
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Authenticate(h.Authenticator, h.Jar))
	router.Use(csrf.Guard)

	// # Infrastructure Endpoints
	router.Get("/health", h.Liveness)
	router.Get("/ready", h.Readiness)

	// # Application
	router.Get("/", func(writer http.ResponseWriter, request *http.Request) {
		h.Renderer.Page(writer, request, http.StatusOK, "home", "Shopfront", nil)
	})

	for _, registrar := range []RouteRegistrar{h.Auth, h.Newsletter, h.Catalog, h.Cart, h.Review} {
		if registrar != nil {
			registrar.Routes(router)
		}
	}

	router.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		h.Renderer.Fail(writer, request, apperr.NotFound("Page"))
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, request *http.Request) {
		h.Renderer.Fail(writer, request, &apperr.AppError{
			Code:       apperr.CodeNotFound,
			Message:    "Method not allowed",
			HTTPStatus: http.StatusMethodNotAllowed,
		})
	})

	return router
}

// # Server Definitions

// Server wraps the [http.Server] serving the router.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer binds handler to the configured port with the standard timeouts.
func NewServer(cfg *config.Config, log *slog.Logger, handler http.Handler) *Server {
	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           handler,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
