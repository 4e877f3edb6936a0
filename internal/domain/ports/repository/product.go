package repository

import (
	"context"

	"skyline-store/internal/domain/model"
)

// ProductRepository exposes the slice of the catalog checkout needs.
type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	SavePrice(ctx context.Context, tx Tx, price *model.ProductPrice) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	FindPrice(ctx context.Context, tx Tx, productID, duration string) (*model.ProductPrice, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Product, error)
}
