package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript runs the whole fixed-window check server side so concurrent
// instances see a single consistent counter.
// KEYS[1] counter key; ARGV max, window ms, now ms.
// Returns {allowed, remaining, reset ms}.
var hitScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
local reset = tonumber(redis.call('HGET', KEYS[1], 'reset'))

if reset == nil or now >= reset then
  count = 0
  reset = now + window
  redis.call('HSET', KEYS[1], 'count', 0, 'reset', reset)
  redis.call('PEXPIRE', KEYS[1], window)
end

if count >= max then
  return {0, 0, reset}
end

count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, max - count, reset}
`)

const keyPrefix = "ratelimit:"

// RedisStore keeps counters in redis for deployments running more than
// one instance. Keys expire with their window.
type RedisStore struct {
	redis redis.Scripter
	now   func() time.Time
}

func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{redis: client, now: time.Now}
}

func (s *RedisStore) Hit(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	now := s.now()

	vals, err := hitScript.Run(ctx, s.redis, []string{keyPrefix + key},
		max, window.Milliseconds(), now.UnixMilli()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("unexpected rate limit script reply: %v", vals)
	}

	return Result{
		Allowed:   vals[0] == 1,
		Remaining: int(vals[1]),
		ResetTime: time.UnixMilli(vals[2]).UTC(),
	}, nil
}
