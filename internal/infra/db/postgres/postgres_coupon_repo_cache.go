package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
	"skyline-store/internal/infra/metrics"
	red "skyline-store/internal/infra/redis"
)

var _ repository.CouponRepository = (*couponRepoCacheDecorator)(nil)

// couponRepoCacheDecorator serves coupon reads from Redis. The validate
// endpoint hammers FindByCode; redemptions are rare by comparison. Writes
// and redemptions always go to Postgres and invalidate the cached entry,
// so the authoritative usage counter never lives in the cache.
type couponRepoCacheDecorator struct {
	inner repository.CouponRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCouponRepoCacheDecorator(inner repository.CouponRepository, cache red.RedisClient) repository.CouponRepository {
	return &couponRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   5 * time.Minute,
	}
}

func couponKey(code string) string {
	return fmt.Sprintf("coupon:%s", strings.ToUpper(code))
}

func (d *couponRepoCacheDecorator) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	key := couponKey(code)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("coupon", "hit")
		var c model.Coupon
		if json.Unmarshal([]byte(val), &c) == nil {
			return &c, nil
		}
	}
	if err != nil && err != redis.Nil {
		// Redis being down must not break coupon lookups; fall through.
	}

	metrics.IncCacheRequest("coupon", "miss")
	c, err := d.inner.FindByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if c != nil {
		bytes, _ := json.Marshal(c)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return c, nil
}

func (d *couponRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	d.cache.Del(ctx, couponKey(c.Code))
	return d.inner.Save(ctx, tx, c)
}

func (d *couponRepoCacheDecorator) RedeemOnce(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	// Invalidate before and after: the counter changes on success, and a
	// failed attempt may reflect a state newer than the cached entry.
	d.cache.Del(ctx, couponKey(code))
	c, err := d.inner.RedeemOnce(ctx, tx, code)
	d.cache.Del(ctx, couponKey(code))
	return c, err
}
