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

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, order_number, session_id, customer_email, customer_name, amount_cents, currency, product_id, product_name, duration, payment_method, payment_intent_id, status, needs_fulfillment, created_at`

// Create inserts a new order. The UNIQUE constraint on session_id is the
// backstop for duplicate deliveries racing past the existence probe; the
// violation comes back as domain.ErrAlreadyExists.
//
// Inside a surrounding transaction the insert runs under a savepoint.
// Without it a unique violation would abort the whole transaction
// (25P02) and the caller could not re-read the winner's row on the same
// tx. pgx issues the savepoint via nested Begin/Rollback/Commit.
func (r *orderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO orders (
  id, order_number, session_id, customer_email, customer_name, amount_cents, currency, product_id, product_name, duration, payment_method, payment_intent_id, status, needs_fulfillment, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
);`

	args := []interface{}{
		o.ID, o.OrderNumber, o.SessionID, o.CustomerEmail, o.CustomerName,
		o.AmountCents, o.Currency, o.ProductID, o.ProductName, o.Duration,
		o.PaymentMethod, o.PaymentIntentID, o.Status, o.NeedsFulfillment, o.CreatedAt,
	}

	if outer, ok := tx.(pgx.Tx); ok {
		sp, err := outer.Begin(ctx)
		if err != nil {
			return domain.ErrOperationFailed
		}
		if _, err := sp.Exec(ctx, q, args...); err != nil {
			_ = sp.Rollback(ctx)
			if isUniqueViolation(err) {
				return domain.ErrAlreadyExists
			}
			return domain.ErrOperationFailed
		}
		if err := sp.Commit(ctx); err != nil {
			return domain.ErrOperationFailed
		}
		return nil
	}

	_, err := execSQL(ctx, r.pool, tx, q, args...)
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

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE session_id=$1`
	row, err := pickRow(ctx, r.pool, tx, q, sessionID)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) FindByPaymentIntentID(ctx context.Context, tx repository.Tx, intentID string) ([]*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_id=$1 ORDER BY created_at`
	rows, err := queryRows(ctx, r.pool, tx, q, intentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *orderRepo) SetNeedsFulfillment(ctx context.Context, tx repository.Tx, id string, flag bool) error {
	const q = `UPDATE orders SET needs_fulfillment=$2 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, flag)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus) error {
	const q = `UPDATE orders SET status=$2 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *orderRepo) ListNeedingFulfillment(ctx context.Context, tx repository.Tx, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE needs_fulfillment ORDER BY created_at LIMIT $1`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.SessionID, &o.CustomerEmail, &o.CustomerName,
		&o.AmountCents, &o.Currency, &o.ProductID, &o.ProductName, &o.Duration,
		&o.PaymentMethod, &o.PaymentIntentID, &o.Status, &o.NeedsFulfillment, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]*model.Order, error) {
	var out []*model.Order
	for rows.Next() {
		o := &model.Order{}
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.SessionID, &o.CustomerEmail, &o.CustomerName,
			&o.AmountCents, &o.Currency, &o.ProductID, &o.ProductName, &o.Duration,
			&o.PaymentMethod, &o.PaymentIntentID, &o.Status, &o.NeedsFulfillment, &o.CreatedAt,
		); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, o)
	}
	return out, nil
}
