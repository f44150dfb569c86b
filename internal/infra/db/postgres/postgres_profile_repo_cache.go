package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
	"hosting-payments/internal/infra/metrics"
	red "hosting-payments/internal/infra/redis"
)

var (
	_ repository.ProfileRepository       = (*profileRepoCacheDecorator)(nil)
	_ repository.ProfileCacheInvalidator = (*profileRepoCacheDecorator)(nil)
)

// profileRepoCacheDecorator caches profile reads made outside a transaction.
// Reads inside a transaction always go to the database.
type profileRepoCacheDecorator struct {
	inner repository.ProfileRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewProfileRepoCacheDecorator(inner repository.ProfileRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.ProfileRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &profileRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func profileKey(userID string) string { return fmt.Sprintf("profile:id:%s", userID) }

func (d *profileRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
	if tx != nil {
		metrics.IncCacheRequest("profile", "bypass")
		return d.inner.FindByID(ctx, tx, userID)
	}
	key := profileKey(userID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var p model.Profile
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("profile", "hit")
			return &p, nil
		}
	} else if err != redis.Nil {
		d.log.Warn().Err(err).Str("key", key).Msg("profile cache read failed")
	}

	metrics.IncCacheRequest("profile", "miss")
	p, err := d.inner.FindByID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

// UpdateSubscriptionPlan drops the cached entry up front. A read racing the
// enclosing transaction can re-cache the old plan, so callers running inside a
// transaction also call Invalidate after commit.
func (d *profileRepoCacheDecorator) UpdateSubscriptionPlan(ctx context.Context, tx repository.Tx, userID string, plan model.Plan) error {
	d.Invalidate(ctx, userID)
	return d.inner.UpdateSubscriptionPlan(ctx, tx, userID, plan)
}

func (d *profileRepoCacheDecorator) Invalidate(ctx context.Context, userID string) {
	if err := d.cache.Del(ctx, profileKey(userID)); err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Msg("profile cache invalidation failed")
	}
}
