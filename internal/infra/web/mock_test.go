//go:build !integration

package web

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"skyline-store/internal/domain"
	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
	"skyline-store/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock use cases (Func-field style) ----

type MockWebhookUC struct {
	HandleFunc func(ctx context.Context, ev usecase.WebhookEvent) (usecase.Outcome, error)
	Events     []usecase.WebhookEvent
}

var _ usecase.WebhookUseCase = (*MockWebhookUC)(nil)

func (m *MockWebhookUC) Handle(ctx context.Context, ev usecase.WebhookEvent) (usecase.Outcome, error) {
	m.Events = append(m.Events, ev)
	if m.HandleFunc != nil {
		return m.HandleFunc(ctx, ev)
	}
	return usecase.OutcomeProcessed, nil
}

type MockCheckoutUC struct {
	StartFunc        func(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error)
	ListProductsFunc func(ctx context.Context) ([]*model.Product, error)
}

var _ usecase.CheckoutUseCase = (*MockCheckoutUC)(nil)

func (m *MockCheckoutUC) Start(ctx context.Context, in usecase.CheckoutInput) (*usecase.CheckoutResult, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, in)
	}
	return nil, domain.ErrInvalidArgument
}

func (m *MockCheckoutUC) ListProducts(ctx context.Context) ([]*model.Product, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx)
	}
	return nil, nil
}

type MockCouponUC struct {
	ValidateFunc func(ctx context.Context, code string, subtotalCents int64) (*model.Coupon, int64, error)
}

var _ usecase.CouponUseCase = (*MockCouponUC)(nil)

func (m *MockCouponUC) Validate(ctx context.Context, code string, subtotalCents int64) (*model.Coupon, int64, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, code, subtotalCents)
	}
	return nil, 0, domain.ErrNotFound
}

type MockOrderUC struct {
	StatusBySessionFunc        func(ctx context.Context, sessionID string) (*model.Order, *model.License, error)
	ListNeedingFulfillmentFunc func(ctx context.Context, limit int) ([]*model.Order, error)
	MarkRefundedFunc           func(ctx context.Context, orderID string) error
}

var _ usecase.OrderUseCase = (*MockOrderUC)(nil)

func (m *MockOrderUC) Materialize(ctx context.Context, tx repository.Tx, s *model.PaymentSession, paymentMethod, paymentIntentID string) (*model.Order, bool, error) {
	return nil, false, domain.ErrOperationFailed
}

func (m *MockOrderUC) AllocateLicense(ctx context.Context, tx repository.Tx, o *model.Order) (*model.License, error) {
	return nil, domain.ErrOperationFailed
}

func (m *MockOrderUC) StatusBySession(ctx context.Context, sessionID string) (*model.Order, *model.License, error) {
	if m.StatusBySessionFunc != nil {
		return m.StatusBySessionFunc(ctx, sessionID)
	}
	return nil, nil, domain.ErrNotFound
}

func (m *MockOrderUC) ListNeedingFulfillment(ctx context.Context, limit int) ([]*model.Order, error) {
	if m.ListNeedingFulfillmentFunc != nil {
		return m.ListNeedingFulfillmentFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockOrderUC) MarkRefunded(ctx context.Context, orderID string) error {
	if m.MarkRefundedFunc != nil {
		return m.MarkRefundedFunc(ctx, orderID)
	}
	return nil
}

type MockNotificationUC struct {
	ListTerminallyFailedFunc func(ctx context.Context, limit int) ([]*model.NotificationJob, error)
}

var _ usecase.NotificationUseCase = (*MockNotificationUC)(nil)

func (m *MockNotificationUC) EnqueueOrderNotifications(ctx context.Context, tx repository.Tx, o *model.Order, licenseKey string, outOfStock bool) error {
	return nil
}

func (m *MockNotificationUC) DeliverBatch(ctx context.Context) (int, int, error) { return 0, 0, nil }

func (m *MockNotificationUC) RecoverStuck(ctx context.Context) (int, error) { return 0, nil }

func (m *MockNotificationUC) ListByOrderID(ctx context.Context, orderID string) ([]*model.NotificationJob, error) {
	return nil, nil
}

func (m *MockNotificationUC) ListTerminallyFailed(ctx context.Context, limit int) ([]*model.NotificationJob, error) {
	if m.ListTerminallyFailedFunc != nil {
		return m.ListTerminallyFailedFunc(ctx, limit)
	}
	return nil, nil
}
