// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	requestutil "github.com/taibuivan/shopfront/internal/platform/request"
)

/*
TestFields_FormAndJSON verifies that both encodings flatten to the same view.
*/
func TestFields_FormAndJSON(t *testing.T) {
	form := url.Values{"username": {"alice"}, "quantity": {"2"}}
	formRequest := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(form.Encode()))
	formRequest.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	jsonRequest := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(`{"username":"alice","quantity":2,"gift":true,"note":null}`))
	jsonRequest.Header.Set("Content-Type", "application/json")

	fromForm, err := requestutil.Fields(formRequest)
	require.NoError(t, err)
	fromJSON, err := requestutil.Fields(jsonRequest)
	require.NoError(t, err)

	assert.Equal(t, "alice", fromForm.Get("username"))
	assert.Equal(t, fromForm.Get("quantity"), fromJSON.Get("quantity"))
	assert.Equal(t, "true", fromJSON.Get("gift"))
	assert.Empty(t, fromJSON.Get("note"))

	quantity, err := fromJSON.Int64("quantity", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, quantity)
}

/*
TestFields_Rejects covers malformed and nested JSON bodies.
*/
func TestFields_Rejects(t *testing.T) {
	for _, body := range []string{`{"a":`, `{"a":{"b":1}}`, `{"a":[1]}`} {
		request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
		_, err := requestutil.Fields(request)
		assert.Error(t, err, body)
	}

	_, err := requestutil.Values{"quantity": "two"}.Int64("quantity", 1)
	assert.Error(t, err)
}

/*
TestSafeNext verifies that only local paths survive as post-login targets.
*/
func TestSafeNext(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/unsubscribe?token=abc", "/unsubscribe?token=abc"},
		{"/dashboard", "/dashboard"},
		{"", "/fallback"},
		{"https://evil.example/", "/fallback"},
		{"//evil.example/", "/fallback"},
		{"/\\evil.example", "/fallback"},
		{"relative/path", "/fallback"},
		{"/ok\r\nSet-Cookie: x", "/fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, requestutil.SafeNext(tt.target, "/fallback"))
		})
	}
}

/*
TestLoginRedirect verifies that the original request URI is preserved.
*/
func TestLoginRedirect(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/unsubscribe?token=abc", nil)
	assert.Equal(t, "/login?next=%2Funsubscribe%3Ftoken%3Dabc", requestutil.LoginRedirect(request))
}
