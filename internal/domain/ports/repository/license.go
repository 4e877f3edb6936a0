package repository

import (
	"context"

	"skyline-store/internal/domain/model"
)

// LicenseRepository manages the pre-provisioned key pool.
type LicenseRepository interface {
	Save(ctx context.Context, tx Tx, l *model.License) error
	// ClaimOne atomically assigns one unused license for (productID,
	// duration) to orderID and returns it. This is a single conditional
	// write; no unused row means domain.ErrOutOfStock. Two orders can
	// never receive the same row regardless of concurrency.
	ClaimOne(ctx context.Context, tx Tx, productID, duration, orderID string) (*model.License, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.License, error)
	CountUnused(ctx context.Context, tx Tx, productID, duration string) (int, error)
}
