// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/platform/constants"
	"github.com/taibuivan/shopfront/internal/platform/cookie"
	"github.com/taibuivan/shopfront/internal/platform/csrf"
	"github.com/taibuivan/shopfront/internal/platform/middleware"
	"github.com/taibuivan/shopfront/internal/platform/render"
	"github.com/taibuivan/shopfront/internal/users/auth"
)

func newRouter(t *testing.T, f *fixture) http.Handler {
	t.Helper()

	renderer, err := render.New()
	require.NoError(t, err)

	jar := cookie.Jar{TTL: time.Hour}
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(f.authenticator, jar))
	router.Use(csrf.Guard)
	auth.NewHandler(f.service, renderer, jar, nil).Routes(router)
	return router
}

func postForm(target string, values url.Values, session *http.Cookie) *http.Request {
	request := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if session != nil {
		request.AddCookie(session)
	}
	return request
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range recorder.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

/*
TestHandler_RegisterLoginLogout walks the browser flow end to end.
*/
func TestHandler_RegisterLoginLogout(t *testing.T) {
	f := newFixture(t, auth.SessionConfig{SingleSession: true, BindFingerprint: true})
	router := newRouter(t, f)

	// ── Register (JSON) ──
	request := httptest.NewRequest(http.MethodPost, "/register",
		strings.NewReader(`{"username":"Alice","password":"correct horse battery"}`))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "verifier")
	assert.NotContains(t, recorder.Body.String(), "correct horse battery")

	// ── Wrong password re-renders the form ──
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, postForm("/login", url.Values{"username": {"alice"}, "password": {"nope nope nope"}}, nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid username or password")
	assert.Empty(t, recorder.Result().Cookies())

	// ── Login (form) with an unsafe next ──
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, postForm("/login", url.Values{
		"username": {"alice"}, "password": {"correct horse battery"}, "next": {"//evil.example/steal"},
	}, nil))
	require.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, constants.DefaultLandingPath, recorder.Header().Get("Location"))

	session := sessionCookie(t, recorder)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)

	// ── Dashboard greets the user ──
	request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	request.AddCookie(session)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Hello, alice")

	// ── Session endpoint exposes the CSRF token ──
	request = httptest.NewRequest(http.MethodGet, "/session", nil)
	request.AddCookie(session)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	var body struct {
		Data struct {
			Authenticated bool   `json:"authenticated"`
			CSRFToken     string `json:"csrf_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.True(t, body.Data.Authenticated)
	require.NotEmpty(t, body.Data.CSRFToken)

	// ── Logout without the CSRF token is refused ──
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, postForm("/logout", url.Values{}, session))
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	// ── Logout with it succeeds and clears the cookie ──
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, postForm("/logout", url.Values{constants.CSRFFormField: {body.Data.CSRFToken}}, session))
	require.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, -1, sessionCookie(t, recorder).MaxAge)

	// ── The old cookie no longer opens the dashboard ──
	request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	request.AddCookie(session)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", recorder.Header().Get("Location"))
}

/*
TestHandler_LoginJSON returns the user and CSRF token without the verifier.
*/
func TestHandler_LoginJSON(t *testing.T) {
	f := newFixture(t, auth.SessionConfig{})
	router := newRouter(t, f)
	f.register(t, "bob", "correct horse battery")

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"username":"BOB","password":"correct horse battery"}`, http.StatusOK},
		{"wrong password", `{"username":"bob","password":"incorrect horse"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"nobody","password":"correct horse battery"}`, http.StatusUnauthorized},
		{"missing password", `{"username":"bob"}`, http.StatusBadRequest},
		{"malformed body", `{"username":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			request.Header.Set("Content-Type", "application/json")
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.NotContains(t, recorder.Body.String(), "argon2id")
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, recorder.Body.String(), `"csrf_token"`)
				sessionCookie(t, recorder)
			}
		})
	}
}

/*
TestHandler_ChangePassword rotates the cookie and the CSRF token.
*/
func TestHandler_ChangePassword(t *testing.T) {
	f := newFixture(t, auth.SessionConfig{})
	router := newRouter(t, f)
	f.register(t, "carol", "correct horse battery")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, postForm("/login", url.Values{"username": {"carol"}, "password": {"correct horse battery"}}, nil))
	session := sessionCookie(t, recorder)

	principal, _, err := f.authenticator.Authenticate(t.Context(), session.Value,
		middleware.RequestMeta(httptest.NewRequest(http.MethodGet, "/", nil)))
	require.NoError(t, err)
	require.True(t, principal.IsAuthenticated())

	request := httptest.NewRequest(http.MethodPost, "/account/password",
		strings.NewReader(`{"current_password":"correct horse battery","new_password":"fresh horse battery"}`))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(constants.HeaderCSRFToken, principal.CSRFToken)
	request.AddCookie(session)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	renewed := sessionCookie(t, recorder)
	assert.NotEqual(t, session.Value, renewed.Value)
	assert.NotContains(t, recorder.Body.String(), principal.CSRFToken)
}
