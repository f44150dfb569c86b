package memstore

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	expires time.Time
}

// RateLimiter is a fixed-window counter kept in process memory.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string]*window), now: time.Now}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, period time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	w, ok := r.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &window{expires: now.Add(period)}
		r.windows[key] = w
	}
	w.count++
	return w.count <= limit, nil
}
