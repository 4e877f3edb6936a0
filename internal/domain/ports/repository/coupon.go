package repository

import (
	"context"

	"skyline-store/internal/domain/model"
)

// CouponRepository tracks discount codes and their bounded usage counters.
type CouponRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Coupon) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	// RedeemOnce atomically increments current_uses while the bound
	// holds. Returns domain.ErrCouponExhausted when the counter is
	// already at max_uses, domain.ErrCouponInactive for inactive or
	// out-of-window codes, domain.ErrNotFound for unknown ones.
	RedeemOnce(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
}
