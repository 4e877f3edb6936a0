package model

import (
	"time"

	"skyline-store/internal/domain"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Coupon tracks a discount code and its usage counter. CurrentUses only
// ever moves up in the pipeline; refund decrements are an admin concern.
type Coupon struct {
	Code          string // unique, stored upper-case
	DiscountType  DiscountType
	DiscountValue int64 // percent for percentage, cents for fixed
	MaxUses       *int
	CurrentUses   int
	IsActive      bool
	StartsAt      *time.Time
	ExpiresAt     *time.Time
	CreatedAt     time.Time
}

// NewCoupon validates and constructs an active coupon.
func NewCoupon(code string, dt DiscountType, value int64, maxUses *int, expiresAt *time.Time) (*Coupon, error) {
	if code == "" || value <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if dt != DiscountTypePercentage && dt != DiscountTypeFixed {
		return nil, domain.ErrInvalidArgument
	}
	if dt == DiscountTypePercentage && value > 100 {
		return nil, domain.ErrInvalidArgument
	}
	if maxUses != nil && *maxUses <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Coupon{
		Code:          code,
		DiscountType:  dt,
		DiscountValue: value,
		MaxUses:       maxUses,
		IsActive:      true,
		ExpiresAt:     expiresAt,
		CreatedAt:     time.Now(),
	}, nil
}

// Redeemable checks activity, time window and the usage bound at read time.
// The authoritative bound check happens in the conditional increment; this
// is only for the public validate endpoint and checkout pricing.
func (c *Coupon) Redeemable(now time.Time) error {
	if !c.IsActive {
		return domain.ErrCouponInactive
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return domain.ErrCouponInactive
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return domain.ErrCouponInactive
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return domain.ErrCouponExhausted
	}
	return nil
}

// Discount returns the discount in cents for a subtotal. Percentage
// discounts round half-up; fixed discounts never exceed the subtotal.
func (c *Coupon) Discount(subtotalCents int64) int64 {
	switch c.DiscountType {
	case DiscountTypePercentage:
		return (subtotalCents*c.DiscountValue + 50) / 100
	case DiscountTypeFixed:
		if c.DiscountValue > subtotalCents {
			return subtotalCents
		}
		return c.DiscountValue
	}
	return 0
}
