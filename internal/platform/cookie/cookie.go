// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package cookie writes and clears the session cookie.
//
// The cookie is host-only (no Domain), HttpOnly, SameSite=Lax and scoped to
// "/". Secure follows COOKIE_SECURE so local HTTP development still works.
package cookie

import (
	"net/http"
	"time"

	"github.com/taibuivan/shopfront/internal/platform/constants"
)

// Jar holds the attributes shared by every session cookie.
type Jar struct {
	Secure bool
	TTL    time.Duration
}

// Set writes the session cookie with Max-Age matching the session lifetime.
func (jar Jar) Set(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(jar.TTL / time.Second),
		Expires:  time.Now().Add(jar.TTL),
		HttpOnly: true,
		Secure:   jar.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie in the browser.
func (jar Jar) Clear(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   jar.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session token carried by the request, or "".
func Read(request *http.Request) string {
	c, err := request.Cookie(constants.SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
