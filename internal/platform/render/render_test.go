// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package render_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/platform/ctxutil"
	"github.com/taibuivan/shopfront/internal/platform/render"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	renderer, err := render.New()
	require.NoError(t, err)
	return renderer
}

/*
TestPage_EmbedsCSRFForAuthenticated verifies the hidden field and greeting.
*/
func TestPage_EmbedsCSRFForAuthenticated(t *testing.T) {
	renderer := newRenderer(t)

	principal := sec.Principal{UserID: "u1", Username: "alice", Role: sec.RoleRegular, CSRFToken: "csrf-value"}
	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	request = request.WithContext(ctxutil.WithPrincipal(request.Context(), principal))

	recorder := httptest.NewRecorder()
	renderer.Page(recorder, request, http.StatusOK, "dashboard", "Dashboard", render.Data{"Card": ""})

	body := recorder.Body.String()
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, body, "Hello, alice")
	assert.Contains(t, body, `name="csrf_token" value="csrf-value"`)
	assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))
}

/*
TestPage_EscapesUserInput verifies that stored strings cannot inject markup.
*/
func TestPage_EscapesUserInput(t *testing.T) {
	renderer := newRenderer(t)

	recorder := httptest.NewRecorder()
	renderer.Message(recorder, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "Result", `<script>alert(1)</script>`)

	body := recorder.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, `name="csrf_token"`)
}

/*
TestPage_Unknown reports a server error for a missing page.
*/
func TestPage_Unknown(t *testing.T) {
	recorder := httptest.NewRecorder()
	newRenderer(t).Page(recorder, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "nope", "", nil)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
