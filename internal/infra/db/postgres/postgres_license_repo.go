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

var _ repository.LicenseRepository = (*licenseRepo)(nil)

type licenseRepo struct{ pool *pgxpool.Pool }

func NewLicenseRepo(pool *pgxpool.Pool) *licenseRepo {
	return &licenseRepo{pool: pool}
}

const licenseColumns = `id, product_id, duration, key_value, status, order_id, assigned_at, created_at`

func (r *licenseRepo) Save(ctx context.Context, tx repository.Tx, l *model.License) error {
	const q = `
INSERT INTO licenses (id, product_id, duration, key_value, status, order_id, assigned_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  order_id = EXCLUDED.order_id,
  assigned_at = EXCLUDED.assigned_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.ProductID, l.Duration, l.KeyValue, l.Status, l.OrderID, l.AssignedAt, l.CreatedAt)
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

// ClaimOne assigns exactly one unused key to orderID in a single
// statement. SKIP LOCKED makes concurrent claimants pick distinct rows
// instead of queueing on the same one; the status predicate makes the
// claim conditional, so a read-then-write race is impossible.
func (r *licenseRepo) ClaimOne(ctx context.Context, tx repository.Tx, productID, duration, orderID string) (*model.License, error) {
	const q = `
UPDATE licenses
   SET status = 'assigned', order_id = $3, assigned_at = NOW()
 WHERE id = (
       SELECT id FROM licenses
        WHERE product_id = $1 AND duration = $2 AND status = 'unused'
        ORDER BY created_at
        LIMIT 1
        FOR UPDATE SKIP LOCKED
       )
RETURNING ` + licenseColumns + `;`

	row, err := pickRow(ctx, r.pool, tx, q, productID, duration, orderID)
	if err != nil {
		return nil, err
	}
	l, err := scanLicense(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOutOfStock
		}
		return nil, err
	}
	return l, nil
}

func (r *licenseRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.License, error) {
	q := `SELECT ` + licenseColumns + ` FROM licenses WHERE order_id=$1 LIMIT 1`
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	return scanLicense(row)
}

func (r *licenseRepo) CountUnused(ctx context.Context, tx repository.Tx, productID, duration string) (int, error) {
	const q = `SELECT COUNT(*) FROM licenses WHERE product_id=$1 AND duration=$2 AND status='unused';`
	row, err := pickRow(ctx, r.pool, tx, q, productID, duration)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func scanLicense(row pgx.Row) (*model.License, error) {
	l := &model.License{}
	err := row.Scan(&l.ID, &l.ProductID, &l.Duration, &l.KeyValue, &l.Status, &l.OrderID, &l.AssignedAt, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return l, nil
}
