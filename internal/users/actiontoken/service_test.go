// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package actiontoken_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopfront/internal/platform/apperr"
	"github.com/taibuivan/shopfront/internal/platform/dbtest"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
	platformredis "github.com/taibuivan/shopfront/internal/platform/redis"
	"github.com/taibuivan/shopfront/internal/users/actiontoken"
)

const (
	alice = "0190a1b2-0000-7000-8000-00000000000a"
	bob   = "0190a1b2-0000-7000-8000-00000000000b"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func seedUsers(t *testing.T, db *dbx.DB) {
	t.Helper()

	for _, id := range []string{alice, bob} {
		_, err := db.ExecContext(context.Background(),
			`INSERT INTO users (id, username, verifier, role, created_at, updated_at) VALUES (?, ?, 'x', 'regular', 0, 0)`,
			id, "user-"+id[len(id)-1:])
		require.NoError(t, err)
	}
}

// backends yields a repository per configured store.
func backends(t *testing.T) map[string]func(t *testing.T) actiontoken.Repository {
	t.Helper()

	out := map[string]func(t *testing.T) actiontoken.Repository{
		"sql": func(t *testing.T) actiontoken.Repository {
			db := dbtest.Open(t)
			seedUsers(t, db)
			return actiontoken.NewSQLRepository(db)
		},
	}

	if url := os.Getenv("TEST_REDIS_URL"); url != "" {
		out["redis"] = func(t *testing.T) actiontoken.Repository {
			client, err := platformredis.NewClient(context.Background(), url, dbtest.Logger())
			require.NoError(t, err)
			t.Cleanup(func() { _ = client.Close() })
			return actiontoken.NewRedisRepository(client)
		}
	}
	return out
}

/*
TestService_Redeem covers every redemption outcome on each backend.
*/
func TestService_Redeem(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			// Redis evicts keys by wall time, so the clock starts near now.
			c := &clock{now: time.Now().UTC().Truncate(time.Millisecond)}
			service := actiontoken.NewService(open(t), time.Hour, c.Now)

			t.Run("success then reuse", func(t *testing.T) {
				token, err := service.Issue(ctx, alice, actiontoken.ActionUnsubscribe, 0)
				require.NoError(t, err)

				subject, err := service.Redeem(ctx, token, actiontoken.ActionUnsubscribe)
				require.NoError(t, err)
				assert.Equal(t, alice, subject)

				_, err = service.Redeem(ctx, token, actiontoken.ActionUnsubscribe)
				assert.Equal(t, 409, apperr.As(err).HTTPStatus)
				assert.ErrorIs(t, err, actiontoken.ErrConsumed)
			})

			t.Run("unknown token", func(t *testing.T) {
				_, err := service.Redeem(ctx, "never-issued", actiontoken.ActionUnsubscribe)
				assert.Equal(t, 404, apperr.As(err).HTTPStatus)
				assert.ErrorIs(t, err, actiontoken.ErrNotFound)
			})

			t.Run("wrong action reads as not found", func(t *testing.T) {
				token, err := service.Issue(ctx, alice, actiontoken.ActionConfirmEmail, 0)
				require.NoError(t, err)

				_, err = service.Redeem(ctx, token, actiontoken.ActionUnsubscribe)
				assert.Equal(t, 404, apperr.As(err).HTTPStatus)
				assert.ErrorIs(t, err, actiontoken.ErrWrongAction)

				// The mistaken attempt did not burn the token.
				_, err = service.Redeem(ctx, token, actiontoken.ActionConfirmEmail)
				assert.NoError(t, err)
			})

			t.Run("expiry boundary", func(t *testing.T) {
				live, err := service.Issue(ctx, alice, actiontoken.ActionUnsubscribe, time.Minute)
				require.NoError(t, err)
				dead, err := service.Issue(ctx, alice, actiontoken.ActionUnsubscribe, time.Minute)
				require.NoError(t, err)

				c.Advance(time.Minute - time.Millisecond)
				_, err = service.Redeem(ctx, live, actiontoken.ActionUnsubscribe)
				assert.NoError(t, err)

				c.Advance(2 * time.Millisecond)
				_, err = service.Redeem(ctx, dead, actiontoken.ActionUnsubscribe)
				assert.Equal(t, 410, apperr.As(err).HTTPStatus)
				assert.ErrorIs(t, err, actiontoken.ErrExpired)
			})

			t.Run("other subject is forbidden and does not consume", func(t *testing.T) {
				token, err := service.Issue(ctx, alice, actiontoken.ActionUnsubscribe, 0)
				require.NoError(t, err)

				err = service.RedeemAs(ctx, token, actiontoken.ActionUnsubscribe, bob)
				assert.Equal(t, 403, apperr.As(err).HTTPStatus)

				assert.NoError(t, service.RedeemAs(ctx, token, actiontoken.ActionUnsubscribe, alice))
			})

			t.Run("peek does not consume", func(t *testing.T) {
				token, err := service.Issue(ctx, bob, actiontoken.ActionUnsubscribe, 0)
				require.NoError(t, err)

				for range 2 {
					subject, err := service.Peek(ctx, token, actiontoken.ActionUnsubscribe)
					require.NoError(t, err)
					assert.Equal(t, bob, subject)
				}
				_, err = service.Redeem(ctx, token, actiontoken.ActionUnsubscribe)
				assert.NoError(t, err)
			})
		})
	}
}

/*
TestService_ConcurrentRedeem lets exactly one of many racing callers win.
*/
func TestService_ConcurrentRedeem(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			service := actiontoken.NewService(open(t), time.Hour, nil)

			token, err := service.Issue(ctx, alice, actiontoken.ActionUnsubscribe, 0)
			require.NoError(t, err)

			const racers = 10
			var (
				wg        sync.WaitGroup
				successes atomic.Int32
				conflicts atomic.Int32
			)
			for range racers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := service.Redeem(ctx, token, actiontoken.ActionUnsubscribe)
					switch {
					case err == nil:
						successes.Add(1)
					case apperr.HasCode(err, apperr.CodeConflict):
						conflicts.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.EqualValues(t, 1, successes.Load())
			assert.EqualValues(t, racers-1, conflicts.Load())
		})
	}
}

/*
TestService_PurgeExpired keeps records through the retention window.
*/
func TestService_PurgeExpired(t *testing.T) {
	db := dbtest.Open(t)
	seedUsers(t, db)
	ctx := context.Background()
	c := &clock{now: time.UnixMilli(1_700_000_000_000).UTC()}
	service := actiontoken.NewService(actiontoken.NewSQLRepository(db), time.Hour, c.Now)

	token, err := service.Issue(ctx, alice, actiontoken.ActionUnsubscribe, 0)
	require.NoError(t, err)

	c.Advance(2 * time.Hour)
	purged, err := service.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged)

	_, err = service.Redeem(ctx, token, actiontoken.ActionUnsubscribe)
	assert.ErrorIs(t, err, actiontoken.ErrExpired)

	c.Advance(actiontoken.Retention)
	purged, err = service.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = service.Redeem(ctx, token, actiontoken.ActionUnsubscribe)
	assert.ErrorIs(t, err, actiontoken.ErrNotFound)
}

/*
TestService_RedeemWithin leaves the token unspent when the caller's
transaction rolls back.
*/
func TestService_RedeemWithin(t *testing.T) {
	db := dbtest.Open(t)
	seedUsers(t, db)
	ctx := context.Background()
	service := actiontoken.NewService(actiontoken.NewSQLRepository(db), time.Hour, nil)

	token, err := service.Issue(ctx, alice, actiontoken.ActionUnsubscribe, 0)
	require.NoError(t, err)

	err = dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
		require.NoError(t, service.RedeemWithin(ctx, tx, token, actiontoken.ActionUnsubscribe, alice))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = service.Peek(ctx, token, actiontoken.ActionUnsubscribe)
	require.NoError(t, err, "the rollback restores the token")

	err = dbx.WithTx(ctx, db, func(ctx context.Context, tx dbx.DBTX) error {
		return service.RedeemWithin(ctx, tx, token, actiontoken.ActionUnsubscribe, alice)
	})
	require.NoError(t, err)

	err = service.RedeemAs(ctx, token, actiontoken.ActionUnsubscribe, alice)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
}
