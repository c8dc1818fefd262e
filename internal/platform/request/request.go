// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

Handlers accept both HTML form posts and JSON bodies for the same routes.
[Fields] flattens either encoding into one map so the service call below it
does not care which one the client used.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/constants"
	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/sec"
	"github.com/taibuivan/shopfront/internal/platform/validate"
)

// Values is a flat view of a request body.
type Values map[string]string

// Get returns the value for key or "".
func (values Values) Get(key string) string {
	return values[key]
}

// Int64 parses key as a base-10 integer. A missing key yields fallback.
func (values Values) Int64(key string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(values[key])
	if raw == "" {
		return fallback, nil
	}
	number, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, validate.FieldError(key, "Must be a whole number")
	}
	return number, nil
}

/*
Fields reads a form or JSON body into a flat [Values] map.

JSON numbers and booleans are rendered in their canonical text form. Nested
objects and arrays are rejected.

Returns:
  - Values: The decoded fields
  - error: validate.ErrInvalidBody if the body cannot be decoded
*/
func Fields(request *http.Request) (Values, error) {
	contentType := request.Header.Get(constants.HeaderContentType)

	if strings.HasPrefix(contentType, "application/json") {
		return decodeJSON(request)
	}

	if err := request.ParseForm(); err != nil {
		return nil, validate.ErrInvalidBody
	}
	return flattenForm(request.PostForm), nil
}

func decodeJSON(request *http.Request) (Values, error) {
	raw := map[string]any{}

	decoder := json.NewDecoder(request.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, validate.ErrInvalidBody
	}

	values := make(Values, len(raw))
	for key, value := range raw {
		switch typed := value.(type) {
		case nil:
			continue
		case string:
			values[key] = typed
		case json.Number:
			values[key] = typed.String()
		case bool:
			values[key] = strconv.FormatBool(typed)
		default:
			return nil, validate.FieldError(key, "Must be a scalar value")
		}
	}
	return values, nil
}

func flattenForm(form url.Values) Values {
	values := make(Values, len(form))
	for key, list := range form {
		if len(list) > 0 {
			values[key] = list[0]
		}
	}
	return values
}

/*
Int64Param parses a named URL parameter as a positive identifier.

Returns:
  - int64: The parsed identifier
  - error: apperr.NotFound when the parameter is not a positive integer
*/
func Int64Param(request *http.Request, name, resource string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound(resource)
	}
	return id, nil
}

/*
Principal returns the principal attached by the authenticator.
Anonymous requests yield the zero principal.
*/
func Principal(request *http.Request) sec.Principal {
	return ctxutil.GetPrincipal(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated.

Returns:
  - sec.Principal: The authenticated principal
  - error: apperr.Unauthenticated if the request carries no valid session
*/
func RequiredPrincipal(request *http.Request) (sec.Principal, error) {
	principal := ctxutil.GetPrincipal(request.Context())
	if !principal.IsAuthenticated() {
		return principal, apperr.Unauthenticated()
	}
	return principal, nil
}

/*
SafeNext returns target when it is a same-origin absolute path, otherwise
fallback. Scheme-relative ("//host") and backslash forms are refused so a
crafted "next" cannot send the user off-site after login.
*/
func SafeNext(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return fallback
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") || strings.ContainsAny(target, "\r\n") {
		return fallback
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return fallback
	}
	return target
}

/*
LoginRedirect builds the login URL that returns to the current request afterwards.
*/
func LoginRedirect(request *http.Request) string {
	return constants.LoginPath + "?next=" + url.QueryEscape(request.URL.RequestURI())
}
