//go:build !integration

package postgres

import (
	"context"
	"time"

	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
	red "skyline-store/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerCouponRepo mocks the database repository that the coupon
// decorator wraps.
type mockInnerCouponRepo struct {
	SaveFunc       func(ctx context.Context, tx repository.Tx, c *model.Coupon) error
	FindByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error)
	RedeemOnceFunc func(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error)
}

var _ repository.CouponRepository = (*mockInnerCouponRepo)(nil)

func (m *mockInnerCouponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	return m.SaveFunc(ctx, tx, c)
}
func (m *mockInnerCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	return m.FindByCodeFunc(ctx, tx, code)
}
func (m *mockInnerCouponRepo) RedeemOnce(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	return m.RedeemOnceFunc(ctx, tx, code)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
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
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
