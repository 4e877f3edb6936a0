package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"skyline-store/internal/domain"
	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

const couponColumns = `code, discount_type, discount_value, max_uses, current_uses, is_active, starts_at, expires_at, created_at`

func (r *couponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	const q = `
INSERT INTO coupons (code, discount_type, discount_value, max_uses, current_uses, is_active, starts_at, expires_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (code) DO UPDATE SET
  discount_type = EXCLUDED.discount_type,
  discount_value = EXCLUDED.discount_value,
  max_uses = EXCLUDED.max_uses,
  is_active = EXCLUDED.is_active,
  starts_at = EXCLUDED.starts_at,
  expires_at = EXCLUDED.expires_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		strings.ToUpper(c.Code), c.DiscountType, c.DiscountValue, c.MaxUses, c.CurrentUses, c.IsActive, c.StartsAt, c.ExpiresAt, c.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *couponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	q := `SELECT ` + couponColumns + ` FROM coupons WHERE code=$1`
	row, err := pickRow(ctx, r.pool, tx, q, strings.ToUpper(code))
	if err != nil {
		return nil, err
	}
	return scanCoupon(row)
}

// RedeemOnce increments current_uses only while every redeemability
// predicate still holds, as one conditional write. When no row comes
// back, a plain read disambiguates exhausted from inactive from unknown.
func (r *couponRepo) RedeemOnce(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	const q = `
UPDATE coupons
   SET current_uses = current_uses + 1
 WHERE code = $1
   AND is_active
   AND (starts_at IS NULL OR starts_at <= NOW())
   AND (expires_at IS NULL OR expires_at > NOW())
   AND (max_uses IS NULL OR current_uses < max_uses)
RETURNING ` + couponColumns + `;`

	row, err := pickRow(ctx, r.pool, tx, q, strings.ToUpper(code))
	if err != nil {
		return nil, err
	}
	c, err := scanCoupon(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	existing, ferr := r.FindByCode(ctx, tx, code)
	if ferr != nil {
		return nil, ferr // includes domain.ErrNotFound for unknown codes
	}
	if rerr := existing.Redeemable(time.Now()); rerr != nil {
		return nil, rerr
	}
	// The coupon looked redeemable on re-read; the conditional update lost
	// a race and the caller may retry via webhook redelivery.
	return nil, domain.ErrOperationFailed
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	c := &model.Coupon{}
	err := row.Scan(&c.Code, &c.DiscountType, &c.DiscountValue, &c.MaxUses, &c.CurrentUses, &c.IsActive, &c.StartsAt, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}
