// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"skyline-store/internal/domain"
	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
	"skyline-store/internal/infra/metrics"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

type OrderUseCase interface {
	// Materialize turns a completed session into its order. At most one
	// order ever exists per session: an existing row is returned as-is
	// (created=false), and a unique-violation race on insert falls back
	// to the row the winner created.
	Materialize(ctx context.Context, tx repository.Tx, s *model.PaymentSession, paymentMethod, paymentIntentID string) (o *model.Order, created bool, err error)
	// AllocateLicense claims one unused key for the order's (product,
	// duration). An empty pool flags the order for manual fulfillment and
	// returns domain.ErrOutOfStock; the order itself stays completed.
	AllocateLicense(ctx context.Context, tx repository.Tx, o *model.Order) (*model.License, error)
	// StatusBySession backs the customer-facing order status endpoint.
	StatusBySession(ctx context.Context, sessionID string) (*model.Order, *model.License, error)
	ListNeedingFulfillment(ctx context.Context, limit int) ([]*model.Order, error)
	MarkRefunded(ctx context.Context, orderID string) error
}

type orderUC struct {
	orders   repository.OrderRepository
	licenses repository.LicenseRepository
	log      *zerolog.Logger
}

func NewOrderUseCase(orders repository.OrderRepository, licenses repository.LicenseRepository, logger *zerolog.Logger) *orderUC {
	compLog := logger.With().Str("component", "OrderUC").Logger()
	return &orderUC{orders: orders, licenses: licenses, log: &compLog}
}

func (u *orderUC) Materialize(ctx context.Context, tx repository.Tx, s *model.PaymentSession, paymentMethod, paymentIntentID string) (*model.Order, bool, error) {
	existing, err := u.orders.FindBySessionID(ctx, tx, s.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	o, err := model.NewOrderFromSession(s, paymentMethod, paymentIntentID)
	if err != nil {
		return nil, false, err
	}
	if err := u.orders.Create(ctx, tx, o); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost the race to a concurrent duplicate delivery. The
			// winner's row is the order for this session.
			won, ferr := u.orders.FindBySessionID(ctx, tx, s.ID)
			if ferr != nil {
				return nil, false, ferr
			}
			return won, false, nil
		}
		return nil, false, err
	}

	metrics.IncOrder(string(o.Status))
	metrics.AddOrderRevenue(o.Currency, o.AmountCents)
	u.log.Info().
		Str("order_id", o.ID).
		Str("order_number", o.OrderNumber).
		Str("session_id", s.ID).
		Int64("amount_cents", o.AmountCents).
		Msg("order materialized")
	return o, true, nil
}

func (u *orderUC) AllocateLicense(ctx context.Context, tx repository.Tx, o *model.Order) (*model.License, error) {
	lic, err := u.licenses.ClaimOne(ctx, tx, o.ProductID, o.Duration, o.ID)
	if err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			metrics.IncLicenseClaim("out_of_stock")
			metrics.SetLicensePoolUnused(o.ProductID, o.Duration, 0)
			if ferr := u.orders.SetNeedsFulfillment(ctx, tx, o.ID, true); ferr != nil {
				return nil, ferr
			}
			o.NeedsFulfillment = true
			u.log.Warn().
				Str("order_id", o.ID).
				Str("product_id", o.ProductID).
				Str("duration", o.Duration).
				Msg("license pool empty, order flagged for manual fulfillment")
			return nil, domain.ErrOutOfStock
		}
		return nil, err
	}

	metrics.IncLicenseClaim("assigned")
	if n, cerr := u.licenses.CountUnused(ctx, tx, o.ProductID, o.Duration); cerr == nil {
		metrics.SetLicensePoolUnused(o.ProductID, o.Duration, n)
	}
	u.log.Info().
		Str("order_id", o.ID).
		Str("license_id", lic.ID).
		Msg("license assigned")
	return lic, nil
}

func (u *orderUC) StatusBySession(ctx context.Context, sessionID string) (*model.Order, *model.License, error) {
	o, err := u.orders.FindBySessionID(ctx, nil, sessionID)
	if err != nil {
		return nil, nil, err
	}
	lic, err := u.licenses.FindByOrderID(ctx, nil, o.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return o, nil, nil
		}
		return nil, nil, err
	}
	return o, lic, nil
}

func (u *orderUC) ListNeedingFulfillment(ctx context.Context, limit int) ([]*model.Order, error) {
	return u.orders.ListNeedingFulfillment(ctx, nil, limit)
}

func (u *orderUC) MarkRefunded(ctx context.Context, orderID string) error {
	// Refunds do not release the assigned license and do not decrement
	// coupon usage. Both are deliberate: keys may already be activated,
	// and coupon counters only move forward.
	return u.orders.UpdateStatus(ctx, nil, orderID, model.OrderStatusRefunded)
}
