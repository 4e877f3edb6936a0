package model

import (
	"time"

	"skyline-store/internal/domain"
)

// Product is a catalog entry. The pipeline treats the catalog as mostly
// read-only; checkout uses it to price a (product, duration) pair.
type Product struct {
	ID        string // UUID
	Name      string
	Slug      string // unique
	IsActive  bool
	CreatedAt time.Time
}

// ProductPrice maps a product duration to its unit price in cents.
type ProductPrice struct {
	ProductID  string
	Duration   string
	PriceCents int64
}

func NewProduct(name, slug string) (*Product, error) {
	if name == "" || slug == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Product{
		ID:        NewUUID(),
		Name:      name,
		Slug:      slug,
		IsActive:  true,
		CreatedAt: time.Now(),
	}, nil
}
