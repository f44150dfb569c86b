package memstore

import (
	"context"
	"sync"
	"time"

	"hosting-payments/internal/domain/ports/repository"
)

var _ repository.ReplayLedger = (*ReplayLedger)(nil)

// ReplayLedger is the in-process counterpart of the Redis ledger.
type ReplayLedger struct {
	mu   sync.Mutex
	keys map[string]time.Time // key -> expiry
	now  func() time.Time
}

func NewReplayLedger() *ReplayLedger {
	return &ReplayLedger{keys: make(map[string]time.Time), now: time.Now}
}

func (l *ReplayLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.keys[key]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}
	exp := time.Time{}
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	l.keys[key] = exp
	return true, nil
}

func (l *ReplayLedger) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, key)
	return nil
}
