// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package actiontoken

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/shopfront/internal/platform/constants"
	"github.com/taibuivan/shopfront/internal/platform/dberr"
	"github.com/taibuivan/shopfront/internal/platform/dbx"
)

const (
	fieldSubject    = "subject"
	fieldAction     = "action"
	fieldExpiresAt  = "expires_at"
	fieldConsumedAt = "consumed_at"
)

// consumeScript marks a token used when every condition holds.
//
// KEYS[1] token key; ARGV action, subject, now (unix ms).
var consumeScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'action', 'subject', 'expires_at', 'consumed_at')
if not v[1] then return 0 end
if v[1] ~= ARGV[1] or v[2] ~= ARGV[2] then return 0 end
if tonumber(v[3]) <= tonumber(ARGV[3]) then return 0 end
if v[4] then return 0 end
redis.call('HSET', KEYS[1], 'consumed_at', ARGV[3])
return 1
`)

// RedisRepository implements [Repository] on Redis hashes.
//
// Keys expire natively [Retention] after the token does, so DeleteExpired
// has nothing to do.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis-backed [Repository].
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func tokenKey(tokenHash string) string {
	return constants.RedisPrefixActionToken + tokenHash
}

/*
Create stores record with a native expiry.

Parameters:
  - context: context.Context
  - record: *Record

Returns:
  - error: Connectivity errors
*/
func (repository *RedisRepository) Create(context context.Context, record *Record) error {
	key := tokenKey(record.TokenHash)

	_, err := repository.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.HSet(context, key,
			fieldSubject, record.SubjectUserID,
			fieldAction, string(record.Action),
			fieldExpiresAt, record.ExpiresAt.UnixMilli(),
		)
		pipe.PExpireAt(context, key, record.ExpiresAt.Add(Retention))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_action_token_set_failed: %w", err)
	}
	return nil
}

/*
Find retrieves the record for tokenHash.

Returns:
  - *Record: The stored record
  - error: dberr.ErrNotFound when the key is absent, or connectivity errors
*/
func (repository *RedisRepository) Find(context context.Context, tokenHash string) (*Record, error) {
	values, err := repository.client.HGetAll(context, tokenKey(tokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis_action_token_get_failed: %w", err)
	}
	if len(values) == 0 {
		return nil, dberr.ErrNotFound
	}

	expiresAt, err := strconv.ParseInt(values[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis_action_token_corrupt: %w", err)
	}

	record := &Record{
		TokenHash:     tokenHash,
		SubjectUserID: values[fieldSubject],
		Action:        Action(values[fieldAction]),
		ExpiresAt:     time.UnixMilli(expiresAt).UTC(),
	}
	if raw, ok := values[fieldConsumedAt]; ok {
		consumedAt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis_action_token_corrupt: %w", err)
		}
		at := time.UnixMilli(consumedAt).UTC()
		record.ConsumedAt = &at
	}
	return record, nil
}

// Consume runs the check-and-set script atomically on the server. q is unused.
func (repository *RedisRepository) Consume(context context.Context, _ dbx.DBTX, tokenHash string, action Action, subject string, now time.Time) (bool, error) {
	won, err := consumeScript.Run(context, repository.client,
		[]string{tokenKey(tokenHash)},
		string(action), subject, now.UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis_action_token_consume_failed: %w", err)
	}
	return won == 1, nil
}

// DeleteExpired is a no-op; Redis evicts keys on its own.
func (repository *RedisRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
