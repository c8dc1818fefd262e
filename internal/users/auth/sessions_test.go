// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/platform/sec"
	"github.com/taibuivan/shopfront/internal/users/auth"
)

/*
TestSessionStore_Lifecycle covers create, lookup and revoke.
*/
func TestSessionStore_Lifecycle(t *testing.T) {
	f := newFixture(t, auth.SessionConfig{SingleSession: true, BindFingerprint: true})
	ctx := context.Background()
	user := f.register(t, "alice", "correct horse battery")

	issued, err := f.sessions.Create(ctx, user.ID, browser)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.NotEmpty(t, issued.CSRFToken)
	assert.Equal(t, f.clock.Now().Add(time.Hour), issued.ExpiresAt)

	result, err := f.sessions.Lookup(ctx, issued.Token, browser)
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.Session.UserID)
	assert.Equal(t, issued.CSRFToken, result.Session.CSRFToken)
	assert.Empty(t, result.RotatedToken)
	assert.NotEqual(t, issued.Token, result.Session.TokenHash, "only the hash is stored")

	require.NoError(t, f.sessions.Revoke(ctx, issued.Token))
	_, err = f.sessions.Lookup(ctx, issued.Token, browser)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)

	// Revoking twice is harmless.
	require.NoError(t, f.sessions.Revoke(ctx, issued.Token))

	_, err = f.sessions.Lookup(ctx, "", browser)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

/*
TestSessionStore_ExpiryBoundary checks the last valid millisecond and the
first expired one. Renewal is pushed to the TTL so it does not move expiry.
*/
func TestSessionStore_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantErr error
	}{
		{"one millisecond before expiry", time.Hour - time.Millisecond, nil},
		{"exactly at expiry", time.Hour, auth.ErrSessionExpired},
		{"one millisecond after expiry", time.Hour + time.Millisecond, auth.ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, auth.SessionConfig{TTL: time.Hour, RenewThreshold: time.Hour})
			ctx := context.Background()
			user := f.register(t, "bob", "correct horse battery")

			issued, err := f.sessions.Create(ctx, user.ID, browser)
			require.NoError(t, err)

			f.clock.Advance(tt.advance)
			_, err = f.sessions.Lookup(ctx, issued.Token, browser)

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, 1, f.sessionCount(t, user.ID))
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.sessionCount(t, user.ID), "expired sessions are deleted on sight")
		})
	}
}

/*
TestSessionStore_SlidingRenewal verifies re-keying past the threshold.
*/
func TestSessionStore_SlidingRenewal(t *testing.T) {
	f := newFixture(t, auth.SessionConfig{TTL: time.Hour, RenewThreshold: 30 * time.Minute})
	ctx := context.Background()
	user := f.register(t, "carol", "correct horse battery")

	issued, err := f.sessions.Create(ctx, user.ID, browser)
	require.NoError(t, err)

	// Below the threshold nothing changes.
	f.clock.Advance(30 * time.Minute)
	result, err := f.sessions.Lookup(ctx, issued.Token, browser)
	require.NoError(t, err)
	assert.Empty(t, result.RotatedToken)

	f.clock.Advance(time.Minute)
	result, err = f.sessions.Lookup(ctx, issued.Token, browser)
	require.NoError(t, err)
	require.NotEmpty(t, result.RotatedToken)
	assert.NotEqual(t, issued.Token, result.RotatedToken)
	assert.Equal(t, issued.CSRFToken, result.Session.CSRFToken, "rotation keeps the csrf token")
	assert.Equal(t, f.clock.Now().Add(time.Hour), result.Session.ExpiresAt)

	_, err = f.sessions.Lookup(ctx, issued.Token, browser)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound, "the old token stops working")

	// The renewed session outlives the original expiry.
	f.clock.Advance(45 * time.Minute)
	_, err = f.sessions.Lookup(ctx, result.RotatedToken, browser)
	assert.NoError(t, err)
}

// losingRotation simulates a concurrent request re-keying the session first.
type losingRotation struct {
	auth.SessionRepository
}

func (losingRotation) Rotate(context.Context, string, string, time.Time, time.Time) (bool, error) {
	return false, nil
}

/*
TestSessionStore_LostRotationRace keeps the request authenticated without a new token.
*/
func TestSessionStore_LostRotationRace(t *testing.T) {
	f := newFixture(t, auth.SessionConfig{})
	ctx := context.Background()
	user := f.register(t, "dave", "correct horse battery")

	issued, err := f.sessions.Create(ctx, user.ID, browser)
	require.NoError(t, err)

	store := auth.NewSessionStore(losingRotation{auth.NewSessionRepository(f.db)},
		auth.SessionConfig{TTL: time.Hour}, f.clock.Now)

	f.clock.Advance(40 * time.Minute)
	result, err := store.Lookup(ctx, issued.Token, browser)
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.Session.UserID)
	assert.Empty(t, result.RotatedToken)
}

/*
TestSessionStore_Fingerprint rejects a cookie replayed from another browser
without revoking the owner's session.
*/
func TestSessionStore_Fingerprint(t *testing.T) {
	f := newFixture(t, auth.SessionConfig{BindFingerprint: true})
	ctx := context.Background()
	user := f.register(t, "erin", "correct horse battery")

	issued, err := f.sessions.Create(ctx, user.ID, browser)
	require.NoError(t, err)

	sameNetwork := sec.RequestMeta{IP: "203.0.113.99", UserAgent: browser.UserAgent}
	_, err = f.sessions.Lookup(ctx, issued.Token, sameNetwork)
	require.NoError(t, err, "a new address in the same /24 is accepted")

	otherBrowser := sec.RequestMeta{IP: browser.IP, UserAgent: "curl/8.5.0"}
	_, err = f.sessions.Lookup(ctx, issued.Token, otherBrowser)
	assert.ErrorIs(t, err, auth.ErrFingerprintMismatch)

	_, err = f.sessions.Lookup(ctx, issued.Token, browser)
	assert.NoError(t, err, "the owner stays logged in")

	unbound := newFixture(t, auth.SessionConfig{})
	other := unbound.register(t, "erin", "correct horse battery")
	issued, err = unbound.sessions.Create(ctx, other.ID, browser)
	require.NoError(t, err)
	_, err = unbound.sessions.Lookup(ctx, issued.Token, otherBrowser)
	assert.NoError(t, err, "binding is off")
}

/*
TestSessionStore_SingleSession checks that a second login revokes the first.
*/
func TestSessionStore_SingleSession(t *testing.T) {
	ctx := context.Background()

	t.Run("sequential", func(t *testing.T) {
		f := newFixture(t, auth.SessionConfig{SingleSession: true})
		user := f.register(t, "frank", "correct horse battery")

		first, err := f.sessions.Create(ctx, user.ID, browser)
		require.NoError(t, err)
		second, err := f.sessions.Create(ctx, user.ID, browser)
		require.NoError(t, err)

		assert.Equal(t, 1, f.sessionCount(t, user.ID))
		_, err = f.sessions.Lookup(ctx, first.Token, browser)
		assert.ErrorIs(t, err, auth.ErrSessionNotFound)
		_, err = f.sessions.Lookup(ctx, second.Token, browser)
		assert.NoError(t, err)
	})

	t.Run("concurrent", func(t *testing.T) {
		f := newFixture(t, auth.SessionConfig{SingleSession: true})
		user := f.register(t, "grace", "correct horse battery")

		const logins = 8
		var wg sync.WaitGroup
		errs := make(chan error, logins)
		for range logins {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.sessions.Create(ctx, user.ID, browser)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, 1, f.sessionCount(t, user.ID))
	})

	t.Run("multiple sessions allowed", func(t *testing.T) {
		f := newFixture(t, auth.SessionConfig{SingleSession: false})
		user := f.register(t, "heidi", "correct horse battery")

		for range 3 {
			_, err := f.sessions.Create(ctx, user.ID, browser)
			require.NoError(t, err)
		}
		assert.Equal(t, 3, f.sessionCount(t, user.ID))

		revoked, err := f.sessions.RevokeAllFor(ctx, user.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 3, revoked)
	})
}

/*
TestSessionStore_CreateForMissingUser fails instead of inserting an orphan.
*/
func TestSessionStore_CreateForMissingUser(t *testing.T) {
	f := newFixture(t, auth.SessionConfig{})

	_, err := f.sessions.Create(context.Background(), "0190a1b2-0000-7000-8000-000000000000", browser)
	assert.Error(t, err)
}

/*
TestSessionStore_PurgeExpired removes only sessions past their expiry.
*/
func TestSessionStore_PurgeExpired(t *testing.T) {
	f := newFixture(t, auth.SessionConfig{TTL: time.Hour})
	ctx := context.Background()
	old := f.register(t, "ivan", "correct horse battery")
	fresh := f.register(t, "judy", "correct horse battery")

	_, err := f.sessions.Create(ctx, old.ID, browser)
	require.NoError(t, err)

	f.clock.Advance(50 * time.Minute)
	_, err = f.sessions.Create(ctx, fresh.ID, browser)
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)
	purged, err := f.sessions.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
	assert.Zero(t, f.sessionCount(t, old.ID))
	assert.Equal(t, 1, f.sessionCount(t, fresh.ID))
}
