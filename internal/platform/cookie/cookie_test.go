// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/platform/cookie"
)

/*
TestJar_Set verifies every attribute of the session cookie.
*/
func TestJar_Set(t *testing.T) {
	recorder := httptest.NewRecorder()
	cookie.Jar{Secure: true, TTL: time.Hour}.Set(recorder, "tok")

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)

	c := cookies[0]
	assert.Equal(t, "session", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Empty(t, c.Domain)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

/*
TestJar_Clear verifies that clearing expires the cookie immediately.
*/
func TestJar_Clear(t *testing.T) {
	recorder := httptest.NewRecorder()
	cookie.Jar{TTL: time.Hour}.Clear(recorder)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.False(t, cookies[0].Secure)
}

/*
TestRead returns only the session cookie.
*/
func TestRead(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, cookie.Read(request))

	request.AddCookie(&http.Cookie{Name: "username", Value: "root"})
	assert.Empty(t, cookie.Read(request))

	request.AddCookie(&http.Cookie{Name: "session", Value: "abc"})
	assert.Equal(t, "abc", cookie.Read(request))
}
