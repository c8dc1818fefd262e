// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package csrf verifies the per-session anti-forgery token on mutating requests.

The token is minted with the session, so it rotates whenever the session does
(login, logout, password change and role change). Forms carry it in the
hidden field "csrf_token"; scripts send it in the X-CSRF-Token header after
reading it from GET /session.

Requests from anonymous principals pass through; every route that mutates
user state also requires authentication, which rejects them there.
*/
package csrf

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/constants"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/respond"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// multipartMemory bounds in-memory multipart parsing; the body itself is
// already capped by the request size guard.
const multipartMemory = 1 << 20

// IsSafeMethod reports whether method never mutates state.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

// Valid reports whether presented equals the principal's session token.
func Valid(principal sec.Principal, presented string) bool {
	return sec.ConstantTimeEqual(principal.CSRFToken, presented)
}

// Presented extracts the token from the header or the form body.
// JSON bodies are never read here; they must use the header.
func Presented(request *http.Request) string {
	if token := request.Header.Get(constants.HeaderCSRFToken); token != "" {
		return token
	}

	mediaType, _, _ := mime.ParseMediaType(request.Header.Get(constants.HeaderContentType))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := request.ParseForm(); err != nil {
			return ""
		}
	case "multipart/form-data":
		if err := request.ParseMultipartForm(multipartMemory); err != nil {
			return ""
		}
	default:
		return ""
	}
	return request.PostForm.Get(constants.CSRFFormField)
}

// Guard rejects unsafe requests from authenticated principals that do not
// present the session's token.
//
// Must be registered AFTER the authenticator.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := ctxutil.GetPrincipal(request.Context())

		if IsSafeMethod(request.Method) || !principal.IsAuthenticated() {
			next.ServeHTTP(writer, request)
			return
		}

		if !Valid(principal, Presented(request)) {
			ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "csrf_rejected",
				slog.String("user_id", principal.UserID),
			)
			respond.Error(writer, request, apperr.CSRF())
			return
		}

		next.ServeHTTP(writer, request)
	})
}
