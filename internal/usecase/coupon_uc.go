// File: internal/usecase/coupon_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
)

// Compile-time check
var _ CouponUseCase = (*couponUC)(nil)

type CouponUseCase interface {
	// Validate checks a code and prices its discount against a subtotal.
	// This is advisory only; the binding check is the conditional
	// increment at redemption time.
	Validate(ctx context.Context, code string, subtotalCents int64) (*model.Coupon, int64, error)
}

type couponUC struct {
	coupons repository.CouponRepository
	log     *zerolog.Logger
}

func NewCouponUseCase(coupons repository.CouponRepository, logger *zerolog.Logger) *couponUC {
	compLog := logger.With().Str("component", "CouponUC").Logger()
	return &couponUC{coupons: coupons, log: &compLog}
}

func (u *couponUC) Validate(ctx context.Context, code string, subtotalCents int64) (*model.Coupon, int64, error) {
	coupon, err := u.coupons.FindByCode(ctx, nil, code)
	if err != nil {
		return nil, 0, err
	}
	if err := coupon.Redeemable(time.Now()); err != nil {
		return nil, 0, err
	}
	return coupon, coupon.Discount(subtotalCents), nil
}
