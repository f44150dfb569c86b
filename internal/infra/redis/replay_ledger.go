package redis

import (
	"context"
	"time"

	"hosting-payments/internal/domain/ports/repository"
	"hosting-payments/internal/infra/metrics"
)

var _ repository.ReplayLedger = (*ReplayLedger)(nil)

const replayPrefix = "webhook:replay:"

// ReplayLedger claims webhook replay keys with SETNX so that only the first
// delivery of an event reaches the reconciler.
type ReplayLedger struct {
	cli RedisClient
}

func NewReplayLedger(cli RedisClient) *ReplayLedger {
	return &ReplayLedger{cli: cli}
}

func (l *ReplayLedger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.cli.SetNX(ctx, replayPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl)
	if err != nil {
		metrics.IncReplayClaim("error")
		return false, err
	}
	if ok {
		metrics.IncReplayClaim("claimed")
	} else {
		metrics.IncReplayClaim("duplicate")
	}
	return ok, nil
}

func (l *ReplayLedger) Release(ctx context.Context, key string) error {
	return l.cli.Del(ctx, replayPrefix+key)
}
