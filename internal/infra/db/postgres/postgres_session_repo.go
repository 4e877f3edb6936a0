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

var _ repository.PaymentSessionRepository = (*sessionRepo)(nil)

type sessionRepo struct{ pool *pgxpool.Pool }

func NewSessionRepo(pool *pgxpool.Pool) *sessionRepo {
	return &sessionRepo{pool: pool}
}

const sessionColumns = `id, external_session_id, customer_email, customer_name, product_id, product_name, duration, unit_price_cents, quantity, coupon_code, subtotal_cents, total_cents, currency, status, created_at, updated_at`

func (r *sessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.PaymentSession) error {
	const q = `
INSERT INTO payment_sessions (
  id, external_session_id, customer_email, customer_name, product_id, product_name, duration, unit_price_cents, quantity, coupon_code, subtotal_cents, total_cents, currency, status, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (id) DO UPDATE SET
  status=$14, updated_at=$16;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.ExternalSessionID, s.CustomerEmail, s.CustomerName,
		s.Item.ProductID, s.Item.ProductName, s.Item.Duration, s.Item.UnitPriceCents, s.Item.Quantity,
		s.CouponCode, s.SubtotalCents, s.TotalCents, s.Currency, s.Status, s.CreatedAt, s.UpdatedAt,
	)
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

func (r *sessionRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.PaymentSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM payment_sessions WHERE external_session_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, externalID)
	if err != nil {
		return nil, err
	}
	return scanSession(row)
}

// MarkTerminal flips a pending session to a terminal status in one
// conditional write. Zero rows affected means the session already reached
// a terminal status through another delivery.
func (r *sessionRepo) MarkTerminal(ctx context.Context, tx repository.Tx, id string, status model.SessionStatus) (bool, error) {
	if !status.Terminal() {
		return false, domain.ErrInvalidArgument
	}
	const q = `
UPDATE payment_sessions
   SET status = $2, updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func scanSession(row pgx.Row) (*model.PaymentSession, error) {
	s := &model.PaymentSession{}
	err := row.Scan(
		&s.ID, &s.ExternalSessionID, &s.CustomerEmail, &s.CustomerName,
		&s.Item.ProductID, &s.Item.ProductName, &s.Item.Duration, &s.Item.UnitPriceCents, &s.Item.Quantity,
		&s.CouponCode, &s.SubtotalCents, &s.TotalCents, &s.Currency, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}
