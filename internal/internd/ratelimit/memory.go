package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pruned once the map grows past this many keys
const maxIdleKeys = 10000

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-process token bucket limiter. A caller may burst up
// to limit requests and then regains one request every window/limit.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	every    rate.Limit
	now      func() time.Time
}

// NewMemoryLimiter creates a limiter allowing limit requests per window
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	every := rate.Inf
	if limit > 0 && window > 0 {
		every = rate.Every(window / time.Duration(limit))
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		every:    every,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		if len(l.visitors) >= maxIdleKeys {
			l.prune(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.every, l.limit)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (l *MemoryLimiter) prune(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.window {
			delete(l.visitors, k)
		}
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	if l.limit <= 0 || l.window <= 0 || key == "" {
		return Result{Allowed: true, Remaining: l.limit}, nil
	}

	now := l.now()
	lim := l.get(key, now)

	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Result{Allowed: false, Remaining: 0, RetryAfter: delay}, nil
	}

	remaining := int(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Remaining: remaining}, nil
}
