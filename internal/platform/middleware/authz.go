// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	stdctx "context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/authz"
	"github.com/taibuivan/shopfront/internal/platform/cookie"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/shopfront/internal/platform/request"
	"github.com/taibuivan/shopfront/internal/platform/respond"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// SessionAuthenticator resolves a session cookie to a principal.
//
// A non-empty rotated value is the session's new token after sliding
// renewal; the middleware sends it back as a fresh cookie.
//
// Errors carrying [apperr.CodeUnauthenticated] mean the cookie no longer
// names a usable session. Any other error is an infrastructure failure.
type SessionAuthenticator interface {
	Authenticate(context stdctx.Context, token string, meta sec.RequestMeta) (principal sec.Principal, rotated string, err error)
}

// Authenticate resolves the session cookie into a [sec.Principal].
//
// # Flow
//  1. No cookie: the request proceeds as anonymous.
//  2. Lookup failure: the stale cookie is cleared and the request proceeds as anonymous.
//  3. Success: the principal is injected into the context; a rotated token is re-set.
//
// Identity is never read from the body, query string or any other header.
func Authenticate(authenticator SessionAuthenticator, jar cookie.Jar) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := cookie.Read(request)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Session Lookup ─────────────────────────────────────────────
			logger := ctxutil.GetLogger(request.Context())
			principal, rotated, err := authenticator.Authenticate(request.Context(), token, RequestMeta(request))
			if err != nil {
				if apperr.HasCode(err, apperr.CodeUnauthenticated) {
					logger.InfoContext(request.Context(), "session_rejected", slog.String("reason", causeOf(err)))
					jar.Clear(writer)
				} else {
					logger.ErrorContext(request.Context(), "session_lookup_failed", slog.Any("error", err))
				}
				next.ServeHTTP(writer, request)
				return
			}
			if !principal.IsAuthenticated() {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Sliding Renewal ────────────────────────────────────────────
			if rotated != "" {
				jar.Set(writer, rotated)
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			ctx = ctxutil.WithLogger(ctx, logger.With(slog.String("user_id", principal.UserID)))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Browser navigations (GET, HEAD) are redirected to the login page with a
// "next" parameter; everything else receives 401.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if !ctxutil.GetPrincipal(request.Context()).IsAuthenticated() {
			Unauthenticated(writer, request)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// Authorize gates a route on an action that needs no resource facts,
// such as the admin product actions. It implies [RequireAuth].
func Authorize(action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())
			decision := authz.Authorize(principal, action, authz.Resource{})

			switch {
			case decision.Allowed:
				next.ServeHTTP(writer, request)
			case decision.Reason == authz.ReasonUnauthenticated:
				Unauthenticated(writer, request)
			default:
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "access_denied",
					slog.String("action", string(action)),
				)
				respond.Error(writer, request, decision.Err())
			}
		})
	}
}

// Unauthenticated sends navigations to the login page and everything else a 401.
func Unauthenticated(writer http.ResponseWriter, request *http.Request) {
	if request.Method == http.MethodGet || request.Method == http.MethodHead {
		respond.Found(writer, request, requestutil.LoginRedirect(request))
		return
	}
	respond.Error(writer, request, apperr.Unauthenticated())
}

func causeOf(err error) string {
	if ae := apperr.As(err); ae != nil && ae.Cause != nil {
		return ae.Cause.Error()
	}
	return err.Error()
}
