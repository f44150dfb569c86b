//go:build !integration

package postgres

import (
	"context"
	"time"

	"hosting-payments/internal/domain/model"
	"hosting-payments/internal/domain/ports/repository"
	red "hosting-payments/internal/infra/redis"
)

// mockInnerProfileRepo mocks the database repository that the profile decorator wraps.
type mockInnerProfileRepo struct {
	FindByIDFunc               func(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error)
	UpdateSubscriptionPlanFunc func(ctx context.Context, tx repository.Tx, userID string, plan model.Plan) error
}

func (m *mockInnerProfileRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
	return m.FindByIDFunc(ctx, tx, userID)
}
func (m *mockInnerProfileRepo) UpdateSubscriptionPlan(ctx context.Context, tx repository.Tx, userID string, plan model.Plan) error {
	return m.UpdateSubscriptionPlanFunc(ctx, tx, userID, plan)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNXFunc  func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return m.SetNXFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
