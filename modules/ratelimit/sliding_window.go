package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims entries older than the window, then admits the
// request when fewer than limit entries remain.
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local seq_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
	local count = redis.call('ZCARD', key)

	if count >= limit then
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		local retry = window_ms
		if #oldest >= 2 then
			retry = oldest[2] + window_ms - now
		end
		return {0, 0, retry}
	end

	local seq = redis.call('INCR', seq_key)
	redis.call('ZADD', key, now, now .. '-' .. seq)
	redis.call('PEXPIRE', key, window_ms)
	redis.call('PEXPIRE', seq_key, window_ms)
	return {1, limit - count - 1, 0}
`)

// SlidingWindowLimiter counts requests per key in a Redis sorted set.
type SlidingWindowLimiter struct {
	client redis.Scripter
	config Config
	now    func() time.Time
}

var _ Limiter = (*SlidingWindowLimiter)(nil)

// NewSlidingWindowLimiter creates a limiter backed by client.
func NewSlidingWindowLimiter(client redis.Scripter, config Config) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// Allow records one request for key and reports whether it fits in the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	redisKey := l.config.KeyPrefix + key

	values, err := slidingWindowScript.Run(ctx, l.client,
		[]string{redisKey, redisKey + ":seq"},
		now.UnixMilli(),
		l.config.Window.Milliseconds(),
		l.config.Requests,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run sliding window script: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected sliding window reply length: %d", len(values))
	}

	result := &Result{
		Allowed:   values[0] == 1,
		Limit:     l.config.Requests,
		Remaining: int(values[1]),
		ResetAt:   now.Add(l.config.Window),
	}
	if !result.Allowed {
		result.RetryAfter = time.Duration(values[2]) * time.Millisecond
		result.ResetAt = now.Add(result.RetryAfter)
	}
	return result, nil
}

// Config returns the limiter's configuration.
func (l *SlidingWindowLimiter) Config() Config {
	return l.config
}
