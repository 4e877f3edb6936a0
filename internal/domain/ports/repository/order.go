package repository

import (
	"context"

	"skyline-store/internal/domain/model"
)

// OrderRepository persists materialized orders. session_id is unique in
// storage; Create surfaces domain.ErrAlreadyExists on a duplicate so the
// materializer can fall back to the existing row.
type OrderRepository interface {
	Create(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.Order, error)
	FindByPaymentIntentID(ctx context.Context, tx Tx, intentID string) ([]*model.Order, error)
	// SetNeedsFulfillment flags an order whose license pool was empty.
	SetNeedsFulfillment(ctx context.Context, tx Tx, id string, flag bool) error
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.OrderStatus) error
	// ListNeedingFulfillment feeds the ops surface.
	ListNeedingFulfillment(ctx context.Context, tx Tx, limit int) ([]*model.Order, error)
}
