// Package ratelimit throttles HTTP requests with a Redis sliding window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTooManyAttempts is returned by the middleware when a caller exhausted its window.
var ErrTooManyAttempts = errors.New("too many attempts")

// Config holds the throttle applied to every caller key.
type Config struct {
	// Requests is the maximum number of requests allowed in the window.
	Requests int
	// Window is the duration of the sliding window.
	Window time.Duration
	// KeyPrefix namespaces all keys written to Redis.
	KeyPrefix string
}

// DefaultConfig allows 60 requests per minute per caller.
func DefaultConfig() Config {
	return Config{
		Requests:  60,
		Window:    time.Minute,
		KeyPrefix: "task-api:throttle:",
	}
}

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// LimitExceededError carries the result of a rejected check.
type LimitExceededError struct {
	Result *Result
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrTooManyAttempts, e.Result.RetryAfter.Round(time.Second))
}

func (e *LimitExceededError) Unwrap() error {
	return ErrTooManyAttempts
}
