package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The counter is created with the window as its expiry; the script returns
// the new count and the remaining expiry in milliseconds.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`

// RedisLimiter is a fixed-window limiter shared by all instances using the
// same Redis
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	script *redis.Script
}

// NewRedisLimiter creates a limiter allowing limit requests per window
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		script: redis.NewScript(rateLimitScript),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if l.limit <= 0 || l.window <= 0 || key == "" {
		return Result{Allowed: true, Remaining: l.limit}, nil
	}

	redisKey := key
	if l.prefix != "" {
		redisKey = l.prefix + ":" + key
	}
	ttl := l.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()

	vals, err := l.script.Run(ctx, l.client, []string{redisKey}, ttl, l.limit).Int64Slice()
	if err != nil {
		return Result{Allowed: true, Remaining: l.limit}, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(vals) != 2 {
		return Result{Allowed: true, Remaining: l.limit}, fmt.Errorf("rate limit script returned %d values", len(vals))
	}

	current, pttl := int(vals[0]), time.Duration(vals[1])*time.Millisecond
	if current > l.limit {
		if pttl < 0 {
			pttl = l.window
		}
		return Result{Allowed: false, Remaining: 0, RetryAfter: pttl}, nil
	}
	return Result{Allowed: true, Remaining: l.limit - current}, nil
}
