// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/app"
	"github.com/taibuivan/shopfront/internal/platform/config"
	"github.com/taibuivan/shopfront/internal/platform/constants"
	"github.com/taibuivan/shopfront/internal/platform/dbtest"
	"github.com/taibuivan/shopfront/internal/platform/sec"
)

const password = "CorrectHorse9"

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:           "0",
		Environment:          "test",
		SessionTTL:           time.Hour,
		RenewThreshold:       30 * time.Minute,
		SingleSessionPerUser: true,
		FingerprintBinding:   true,
		ActionTokenTTL:       time.Hour,
		PasswordKDF:          string(sec.KDFArgon2id),
		KDFCost:              1,
		KDFMemoryKiB:         64,
		PasswordMinLength:    8,
		MaxBodyBytes:         1 << 20,
		PublicBaseURL:        "http://shop.test",
		ShippingFeeCents:     2000,
		PurgeSchedule:        "@every 10m",
	}
}

func newApp(t *testing.T) *app.App {
	t.Helper()

	db := dbtest.Open(t)
	application, err := app.New(testConfig(), dbtest.Logger(), db, nil)
	require.NoError(t, err)
	return application
}

// # Browser Client

// client is a minimal cookie-keeping browser for one user agent.
type client struct {
	t       *testing.T
	handler http.Handler
	session *http.Cookie
	csrf    string
}

func newClient(t *testing.T, handler http.Handler) *client {
	return &client{t: t, handler: handler}
}

func (c *client) do(request *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()

	request.RemoteAddr = "198.51.100.20:40000"
	request.Header.Set("User-Agent", "Mozilla/5.0 TestBrowser/1.0")
	if c.session != nil {
		request.AddCookie(c.session)
	}

	recorder := httptest.NewRecorder()
	c.handler.ServeHTTP(recorder, request)

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name != constants.SessionCookieName {
			continue
		}
		if cookie.MaxAge < 0 {
			c.session = nil
		} else {
			c.session = cookie
		}
	}
	return recorder
}

func (c *client) get(path string, html bool) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, nil)
	if html {
		request.Header.Set("Accept", "text/html")
	}
	return c.do(request)
}

func (c *client) form(path string, values url.Values) *httptest.ResponseRecorder {
	if c.csrf != "" {
		values.Set(constants.CSRFFormField, c.csrf)
	}
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(request)
}

func (c *client) json(method, path string, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	require.NoError(c.t, err)

	request := httptest.NewRequest(method, path, strings.NewReader(string(raw)))
	request.Header.Set("Content-Type", "application/json")
	if c.csrf != "" {
		request.Header.Set(constants.HeaderCSRFToken, c.csrf)
	}
	return c.do(request)
}

// login signs in through the browser form and fetches the CSRF token.
func (c *client) login(username string) {
	c.t.Helper()

	recorder := c.form("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(c.t, http.StatusSeeOther, recorder.Code, recorder.Body.String())
	require.NotNil(c.t, c.session)

	var envelope struct {
		Data struct {
			CSRFToken string `json:"csrf_token"`
		} `json:"data"`
	}
	recorder = c.get("/session", false)
	require.NoError(c.t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	c.csrf = envelope.Data.CSRFToken
	require.NotEmpty(c.t, c.csrf)
}

func createUser(t *testing.T, application *app.App, username string, role sec.UserRole) string {
	t.Helper()

	user, err := application.Accounts.CreateUser(context.Background(), username, password, role)
	require.NoError(t, err)
	return user.ID
}

// # Scenarios

/*
TestScenario_SessionLifecycle registers, logs in, sees the dashboard and logs out.
*/
func TestScenario_SessionLifecycle(t *testing.T) {
	handler := newApp(t).Handler()
	browser := newClient(t, handler)

	recorder := browser.json(http.MethodPost, "/register", map[string]string{"username": "alice", "password": password})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	browser.login("alice")
	assert.True(t, browser.session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, browser.session.SameSite)

	recorder = browser.get("/dashboard", true)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Hello, alice")

	recorder = browser.form("/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Nil(t, browser.session)

	recorder = browser.get("/dashboard", true)
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", recorder.Header().Get("Location"))
}

/*
TestScenario_SecondLoginRevokesFirst keeps one live session per user.
*/
func TestScenario_SecondLoginRevokesFirst(t *testing.T) {
	application := newApp(t)
	handler := application.Handler()
	createUser(t, application, "alice", sec.RoleRegular)

	first, second := newClient(t, handler), newClient(t, handler)
	first.login("alice")
	second.login("alice")

	recorder := first.get("/dashboard", true)
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.True(t, strings.HasPrefix(recorder.Header().Get("Location"), constants.LoginPath))

	recorder = second.get("/dashboard", true)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestScenario_AdminProductCreate lets only admins create products, whatever the body claims.
*/
func TestScenario_AdminProductCreate(t *testing.T) {
	application := newApp(t)
	handler := application.Handler()
	createUser(t, application, "root", sec.RoleAdmin)
	createUser(t, application, "alice", sec.RoleRegular)

	widget := map[string]any{"name": "Widget", "price_cents": 999, "stock": 2}

	root := newClient(t, handler)
	root.login("root")
	recorder := root.json(http.MethodPost, "/admin/products", widget)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	assert.Contains(t, recorder.Body.String(), `"slug":"widget"`)

	alice := newClient(t, handler)
	alice.login("alice")
	recorder = alice.json(http.MethodPost, "/admin/products", widget)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	forged := map[string]any{"user_id": "root", "role": "admin", "name": "Widget", "price_cents": 999, "stock": 2}
	recorder = alice.json(http.MethodPost, "/admin/products", forged)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	anonymous := newClient(t, handler)
	recorder = anonymous.json(http.MethodPost, "/admin/products", widget)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestScenario_VerifiedReview accepts one review per verified buyer.
*/
func TestScenario_VerifiedReview(t *testing.T) {
	application := newApp(t)
	handler := application.Handler()
	aliceID := createUser(t, application, "alice", sec.RoleRegular)
	createUser(t, application, "bob", sec.RoleRegular)

	product := dbtest.SeedProduct(t, application.DB, "Widget", 999, 2)
	_, err := application.DB.ExecContext(context.Background(),
		`INSERT INTO purchases (user_id, product_id, order_id, purchased_at) VALUES (?, ?, NULL, 0)`, aliceID, product)
	require.NoError(t, err)

	body := map[string]any{"product_id": product, "rating": 5, "text": "good"}

	alice := newClient(t, handler)
	alice.login("alice")
	recorder := alice.json(http.MethodPost, "/reviews", body)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	recorder = alice.json(http.MethodPost, "/reviews", body)
	assert.Equal(t, http.StatusConflict, recorder.Code)

	bob := newClient(t, handler)
	bob.login("bob")
	recorder = bob.json(http.MethodPost, "/reviews", body)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = bob.get("/products/"+strconv.FormatInt(product, 10), false)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"username":"alice"`)
}

/*
TestScenario_Unsubscribe requires the link's own user to be signed in and burns the link.
*/
func TestScenario_Unsubscribe(t *testing.T) {
	application := newApp(t)
	handler := application.Handler()
	aliceID := createUser(t, application, "alice", sec.RoleRegular)
	createUser(t, application, "bob", sec.RoleRegular)

	link, err := application.Newsletter.UnsubscribeLink(context.Background(), aliceID)
	require.NoError(t, err)
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	target := "/unsubscribe?token=" + url.QueryEscape(token)

	anonymous := newClient(t, handler)
	recorder := anonymous.get(target, true)
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape(target), recorder.Header().Get("Location"))

	bob := newClient(t, handler)
	bob.login("bob")
	recorder = bob.form("/unsubscribe", url.Values{"token": {token}})
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	alice := newClient(t, handler)
	alice.login("alice")
	recorder = alice.get(target, true)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = alice.form("/unsubscribe", url.Values{"token": {token}, "reason": {"too many emails"}})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	status, err := application.Newsletter.Status(context.Background(), aliceID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.False(t, status.Subscribed)

	recorder = alice.form("/unsubscribe", url.Values{"token": {token}})
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

/*
TestScenario_Checkout declines without losing the cart, then succeeds.
*/
func TestScenario_Checkout(t *testing.T) {
	application := newApp(t)
	handler := application.Handler()
	createUser(t, application, "alice", sec.RoleRegular)
	product := dbtest.SeedProduct(t, application.DB, "Widget", 999, 2)

	alice := newClient(t, handler)
	alice.login("alice")

	recorder := alice.json(http.MethodPost, "/cart/add", map[string]any{"product_id": product, "quantity": 3})
	assert.Equal(t, http.StatusConflict, recorder.Code)

	recorder = alice.json(http.MethodPost, "/cart/add", map[string]any{"product_id": product, "quantity": 2})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = alice.json(http.MethodPost, "/checkout", map[string]any{})
	assert.Equal(t, http.StatusPaymentRequired, recorder.Code)

	recorder = alice.json(http.MethodPost, "/checkout", map[string]any{"card_number": "4000000000000002"})
	assert.Equal(t, http.StatusPaymentRequired, recorder.Code)

	recorder = alice.get("/cart", false)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"total_cents":3998`)

	recorder = alice.json(http.MethodPost, "/checkout", map[string]any{"card_number": "4111111111111111"})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var envelope struct {
		Data struct {
			OrderID    string `json:"order_id"`
			TotalCents int64  `json:"total_cents"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.OrderID)
	assert.Equal(t, int64(2*999+2000), envelope.Data.TotalCents)

	recorder = alice.json(http.MethodPost, "/checkout", map[string]any{"card_number": "4111111111111111"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

// # Boundary

/*
TestBoundary_CSRF rejects mutating requests without the session's token.
*/
func TestBoundary_CSRF(t *testing.T) {
	application := newApp(t)
	handler := application.Handler()
	createUser(t, application, "alice", sec.RoleRegular)

	alice := newClient(t, handler)
	alice.login("alice")
	token := alice.csrf

	alice.csrf = ""
	recorder := alice.form("/logout", url.Values{})
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	tampered := []byte(token)
	tampered[0] ^= 0x01
	alice.csrf = string(tampered)
	recorder = alice.form("/logout", url.Values{})
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	alice.csrf = token
	recorder = alice.form("/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, recorder.Code)
}

/*
TestBoundary_ForgedCookie treats an unknown session token as anonymous and clears it.
*/
func TestBoundary_ForgedCookie(t *testing.T) {
	handler := newApp(t).Handler()

	browser := newClient(t, handler)
	browser.session = &http.Cookie{Name: constants.SessionCookieName, Value: "forged"}

	recorder := browser.get("/dashboard", true)
	assert.Equal(t, http.StatusFound, recorder.Code)
	assert.Nil(t, browser.session)

	recorder = browser.get("/session", false)
	assert.Contains(t, recorder.Body.String(), `"authenticated":false`)
}

/*
TestBoundary_RevokedCookieCleared drops a cookie whose session was logged out elsewhere.
*/
func TestBoundary_RevokedCookieCleared(t *testing.T) {
	application := newApp(t)
	handler := application.Handler()
	createUser(t, application, "alice", sec.RoleRegular)

	browser := newClient(t, handler)
	browser.login("alice")
	stale := browser.session

	recorder := browser.form("/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, recorder.Code)

	browser.session = stale
	recorder = browser.get("/session", false)
	assert.Contains(t, recorder.Body.String(), `"authenticated":false`)
	assert.Nil(t, browser.session)

	var cleared *http.Cookie
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.SessionCookieName {
			cleared = cookie
		}
	}
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestBoundary_HealthAndNotFound(t *testing.T) {
	handler := newApp(t).Handler()
	browser := newClient(t, handler)

	assert.Equal(t, http.StatusOK, browser.get("/health", false).Code)

	recorder := browser.get("/ready", false)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"database"`)

	recorder = browser.get("/nope", false)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "nosniff", recorder.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, recorder.Header().Get(constants.HeaderXRequestID))
}
