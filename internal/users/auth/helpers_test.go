// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/platform/dbtest"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	"github.com/taibuivan/shopfront/internal/platform/sec"
	"github.com/taibuivan/shopfront/internal/users/auth"
)

// fakeClock is a settable time source shared by a store and its service.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000).UTC()}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(d)
}

// fixture bundles the wired auth components over a fresh database.
type fixture struct {
	db            *dbx.DB
	clock         *fakeClock
	users         *auth.SQLUserRepository
	sessions      *auth.SessionStore
	service       *auth.Service
	authenticator *auth.Authenticator
}

var browser = sec.RequestMeta{IP: "203.0.113.7", UserAgent: "Mozilla/5.0 Firefox/128.0"}

func newFixture(t *testing.T, cfg auth.SessionConfig) *fixture {
	t.Helper()

	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}

	db := dbtest.Open(t)
	clock := newFakeClock()
	users := auth.NewUserRepository(db)
	sessions := auth.NewSessionStore(auth.NewSessionRepository(db), cfg, clock.Now)
	service := auth.NewService(users, sessions, dbtest.FastHasher(t), auth.PasswordPolicy{MinLength: 8})

	return &fixture{
		db:            db,
		clock:         clock,
		users:         users,
		sessions:      sessions,
		service:       service,
		authenticator: auth.NewAuthenticator(sessions, users),
	}
}

func (f *fixture) register(t *testing.T, username, password string) *auth.User {
	t.Helper()

	user, err := f.service.Register(context.Background(), username, password)
	require.NoError(t, err)
	return user
}

func (f *fixture) sessionCount(t *testing.T, userID string) int {
	t.Helper()

	var count int
	err := f.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM sessions WHERE user_id = ?`, userID).Scan(&count)
	require.NoError(t, err)
	return count
}
