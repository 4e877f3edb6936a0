package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"skyline-store/internal/domain"
	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
)

var _ repository.NotificationJobRepository = (*notificationJobRepo)(nil)

type notificationJobRepo struct{ pool *pgxpool.Pool }

func NewNotificationJobRepo(pool *pgxpool.Pool) *notificationJobRepo {
	return &notificationJobRepo{pool: pool}
}

const jobColumns = `id, order_id, channel, recipient, subject, payload, status, error_message, attempts, created_at, sent_at`

func (r *notificationJobRepo) Save(ctx context.Context, tx repository.Tx, j *model.NotificationJob) error {
	const q = `
INSERT INTO notification_jobs (id, order_id, channel, recipient, subject, payload, status, error_message, attempts, created_at, sent_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  error_message = EXCLUDED.error_message,
  attempts = EXCLUDED.attempts,
  sent_at = EXCLUDED.sent_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		j.ID, j.OrderID, j.Channel, j.Recipient, j.Subject, j.Payload,
		j.Status, j.ErrorMessage, j.Attempts, j.CreatedAt, j.SentAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// ClaimBatch moves up to limit pending jobs to processing and returns
// them, oldest first. SKIP LOCKED keeps concurrent worker instances from
// claiming overlapping rows, so a processing job is held by exactly one
// worker.
func (r *notificationJobRepo) ClaimBatch(ctx context.Context, limit int) ([]*model.NotificationJob, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
UPDATE notification_jobs
   SET status = 'processing', claimed_at = NOW()
 WHERE id IN (
       SELECT id FROM notification_jobs
        WHERE status = 'pending'
        ORDER BY created_at
        LIMIT $1
        FOR UPDATE SKIP LOCKED
       )
RETURNING ` + jobColumns + `;`

	rows, err := queryRows(ctx, r.pool, nil, q, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.NotificationJob
	for rows.Next() {
		j := &model.NotificationJob{}
		if err := rows.Scan(&j.ID, &j.OrderID, &j.Channel, &j.Recipient, &j.Subject, &j.Payload,
			&j.Status, &j.ErrorMessage, &j.Attempts, &j.CreatedAt, &j.SentAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, j)
	}
	return out, nil
}

func (r *notificationJobRepo) MarkSent(ctx context.Context, tx repository.Tx, id string) error {
	const q = `
UPDATE notification_jobs
   SET status = 'sent', attempts = attempts + 1, error_message = NULL, sent_at = NOW()
 WHERE id = $1 AND status = 'processing';`

	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// MarkFailed records the attempt and either requeues the job or, at the
// attempt bound, parks it in the terminal failed state for the ops view.
func (r *notificationJobRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, errMsg string, maxAttempts int) error {
	const q = `
UPDATE notification_jobs
   SET attempts = attempts + 1,
       error_message = $2,
       status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END
 WHERE id = $1 AND status = 'processing';`

	_, err := execSQL(ctx, r.pool, tx, q, id, errMsg, maxAttempts)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// RequeueProcessing sweeps jobs stranded in processing back to pending.
// The claim age bound leaves fresh claims, possibly held by another live
// worker, alone.
func (r *notificationJobRepo) RequeueProcessing(ctx context.Context, tx repository.Tx, olderThan time.Duration) (int, error) {
	const q = `
UPDATE notification_jobs
   SET status = 'pending', claimed_at = NULL
 WHERE status = 'processing' AND claimed_at < $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, time.Now().Add(-olderThan))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return int(tag.RowsAffected()), nil
}

func (r *notificationJobRepo) ListByOrderID(ctx context.Context, tx repository.Tx, orderID string) ([]*model.NotificationJob, error) {
	q := `SELECT ` + jobColumns + ` FROM notification_jobs WHERE order_id=$1 ORDER BY created_at`
	return r.list(ctx, tx, q, orderID)
}

func (r *notificationJobRepo) ListTerminallyFailed(ctx context.Context, tx repository.Tx, limit int) ([]*model.NotificationJob, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + jobColumns + ` FROM notification_jobs WHERE status='failed' ORDER BY created_at LIMIT $1`
	return r.list(ctx, tx, q, limit)
}

func (r *notificationJobRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.NotificationJob, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.NotificationJob
	for rows.Next() {
		j := &model.NotificationJob{}
		if err := rows.Scan(&j.ID, &j.OrderID, &j.Channel, &j.Recipient, &j.Subject, &j.Payload,
			&j.Status, &j.ErrorMessage, &j.Attempts, &j.CreatedAt, &j.SentAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, j)
	}
	return out, nil
}
