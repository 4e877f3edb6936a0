// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"skyline-store/internal/domain"
	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutInput struct {
	Email      string
	Name       string
	ProductID  string
	Duration   string
	Quantity   int
	CouponCode *string
	// ExternalSessionID is the processor-side session id. Normally it
	// comes back from the processor's create-session call; when empty a
	// local placeholder id is generated.
	ExternalSessionID string
}

type CheckoutResult struct {
	Session       *model.PaymentSession
	DiscountCents int64
}

type CheckoutUseCase interface {
	// Start prices the line item, applies the coupon and records the
	// pending session the webhook pipeline will later resolve.
	Start(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
	ListProducts(ctx context.Context) ([]*model.Product, error)
}

type checkoutUC struct {
	products repository.ProductRepository
	sessions repository.PaymentSessionRepository
	coupons  repository.CouponRepository
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	products repository.ProductRepository,
	sessions repository.PaymentSessionRepository,
	coupons repository.CouponRepository,
	logger *zerolog.Logger,
) *checkoutUC {
	compLog := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{products: products, sessions: sessions, coupons: coupons, log: &compLog}
}

func (u *checkoutUC) Start(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if in.Email == "" || in.ProductID == "" || in.Duration == "" {
		return nil, domain.ErrInvalidArgument
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	product, err := u.products.FindByID(ctx, nil, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.ErrNotFound
	}
	price, err := u.products.FindPrice(ctx, nil, in.ProductID, in.Duration)
	if err != nil {
		return nil, err
	}

	item := model.LineItem{
		ProductID:      product.ID,
		ProductName:    product.Name,
		Duration:       in.Duration,
		UnitPriceCents: price.PriceCents,
		Quantity:       in.Quantity,
	}
	subtotal := price.PriceCents * int64(in.Quantity)

	var discount int64
	var couponCode *string
	if in.CouponCode != nil && *in.CouponCode != "" {
		coupon, err := u.coupons.FindByCode(ctx, nil, *in.CouponCode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
		if err := coupon.Redeemable(time.Now()); err != nil {
			return nil, err
		}
		discount = coupon.Discount(subtotal)
		couponCode = &coupon.Code
	}

	total := subtotal - discount
	if total <= 0 {
		// The processor refuses zero-amount charges; so do we.
		return nil, domain.ErrValidation
	}

	externalID := in.ExternalSessionID
	if externalID == "" {
		externalID = "cs_" + ulid.Make().String()
	}

	sess, err := model.NewPaymentSession(externalID, in.Email, in.Name, item, couponCode, subtotal, total, "USD")
	if err != nil {
		return nil, err
	}
	if err := u.sessions.Save(ctx, nil, sess); err != nil {
		return nil, err
	}

	u.log.Info().
		Str("session_id", sess.ID).
		Str("product_id", product.ID).
		Int64("total_cents", total).
		Msg("checkout session recorded")
	return &CheckoutResult{Session: sess, DiscountCents: discount}, nil
}

func (u *checkoutUC) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return u.products.ListActive(ctx, nil)
}
