// Package ratelimit implements fixed-budget request limiting per caller.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one Allow call
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a caller identified by key may make another request.
// On backend failure implementations return an allowing Result together with
// the error so callers can fail open.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
