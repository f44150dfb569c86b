//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
)

func TestProfileRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	profile := &model.Profile{ID: "user-123", Email: "a@example.com", SubscriptionPlan: model.PlanStarter}

	t.Run("FindByID should fetch from DB and set cache on miss", func(t *testing.T) {
		innerCalled := false
		var cacheSets sync.Map
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", redis.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				cacheSets.Store(key, value)
				return nil
			},
		}
		inner := &mockInnerProfileRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
				innerCalled = true
				return profile, nil
			},
		}

		got, err := NewProfileRepoCacheDecorator(inner, mockRedis, time.Minute, nil).FindByID(ctx, nil, "user-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !innerCalled {
			t.Error("inner repository should be called on a cache miss")
		}
		if _, ok := cacheSets.Load("profile:id:user-123"); !ok {
			t.Error("expected the profile to be cached")
		}
		if got.SubscriptionPlan != model.PlanStarter {
			t.Errorf("unexpected profile %+v", got)
		}
	})

	t.Run("FindByID should serve a hit without touching the DB", func(t *testing.T) {
		raw, _ := json.Marshal(profile)
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return string(raw), nil },
		}
		inner := &mockInnerProfileRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
				t.Fatal("inner repository must not be called on a hit")
				return nil, nil
			},
		}
		got, err := NewProfileRepoCacheDecorator(inner, mockRedis, time.Minute, nil).FindByID(ctx, nil, "user-123")
		if err != nil || got.ID != "user-123" {
			t.Fatalf("got %+v, %v", got, err)
		}
	})

	t.Run("FindByID inside a transaction should bypass the cache", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				t.Fatal("cache must not be read inside a transaction")
				return "", nil
			},
		}
		inner := &mockInnerProfileRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
				return profile, nil
			},
		}
		if _, err := NewProfileRepoCacheDecorator(inner, mockRedis, time.Minute, nil).FindByID(ctx, struct{}{}, "user-123"); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	})

	t.Run("UpdateSubscriptionPlan should invalidate the cache key", func(t *testing.T) {
		var deleted []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deleted = append(deleted, keys...)
				return nil
			},
		}
		var gotPlan model.Plan
		inner := &mockInnerProfileRepo{
			UpdateSubscriptionPlanFunc: func(ctx context.Context, tx repository.Tx, userID string, plan model.Plan) error {
				gotPlan = plan
				return nil
			},
		}
		err := NewProfileRepoCacheDecorator(inner, mockRedis, time.Minute, nil).UpdateSubscriptionPlan(ctx, nil, "user-123", model.PlanBusiness)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(deleted) != 1 || deleted[0] != "profile:id:user-123" {
			t.Errorf("unexpected invalidations %v", deleted)
		}
		if gotPlan != model.PlanBusiness {
			t.Errorf("inner repository got plan %q", gotPlan)
		}
	})

	t.Run("Invalidate should drop the key and swallow cache errors", func(t *testing.T) {
		var deleted []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deleted = append(deleted, keys...)
				return errors.New("redis down")
			},
		}
		d := NewProfileRepoCacheDecorator(&mockInnerProfileRepo{}, mockRedis, time.Minute, nil)
		inv, ok := d.(repository.ProfileCacheInvalidator)
		if !ok {
			t.Fatal("decorator should support post-commit invalidation")
		}
		inv.Invalidate(ctx, "user-123")
		if len(deleted) != 1 || deleted[0] != "profile:id:user-123" {
			t.Errorf("unexpected invalidations %v", deleted)
		}
	})
}
