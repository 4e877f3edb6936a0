package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"skyline-store/internal/domain"
	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

func (r *productRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (id, name, slug, is_active, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  slug = EXCLUDED.slug,
  is_active = EXCLUDED.is_active;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Slug, p.IsActive, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *productRepo) SavePrice(ctx context.Context, tx repository.Tx, price *model.ProductPrice) error {
	const q = `
INSERT INTO product_prices (product_id, duration, price_cents)
VALUES ($1,$2,$3)
ON CONFLICT (product_id, duration) DO UPDATE SET price_cents = EXCLUDED.price_cents;`

	_, err := execSQL(ctx, r.pool, tx, q, price.ProductID, price.Duration, price.PriceCents)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	const q = `SELECT id, name, slug, is_active, created_at FROM products WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.IsActive, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *productRepo) FindPrice(ctx context.Context, tx repository.Tx, productID, duration string) (*model.ProductPrice, error) {
	const q = `SELECT product_id, duration, price_cents FROM product_prices WHERE product_id=$1 AND duration=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, productID, duration)
	if err != nil {
		return nil, err
	}
	p := &model.ProductPrice{}
	if err := row.Scan(&p.ProductID, &p.Duration, &p.PriceCents); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *productRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	const q = `SELECT id, name, slug, is_active, created_at FROM products WHERE is_active ORDER BY name;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p := &model.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}
