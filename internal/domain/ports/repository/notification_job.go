package repository

import (
	"context"
	"time"

	"skyline-store/internal/domain/model"
)

// NotificationJobRepository is the durable outbound queue.
type NotificationJobRepository interface {
	Save(ctx context.Context, tx Tx, j *model.NotificationJob) error
	// ClaimBatch selects up to limit pending jobs oldest-first and marks
	// them processing in the same transaction, so concurrent workers
	// never hold the same job. An empty queue returns an empty slice.
	ClaimBatch(ctx context.Context, limit int) ([]*model.NotificationJob, error)
	// MarkSent records successful delivery.
	MarkSent(ctx context.Context, tx Tx, id string) error
	// MarkFailed records a delivery error. Jobs under maxAttempts go back
	// to pending for the next tick; at the bound they become terminal.
	MarkFailed(ctx context.Context, tx Tx, id string, errMsg string, maxAttempts int) error
	// RequeueProcessing returns processing jobs claimed more than
	// olderThan ago to pending and reports how many were moved. A worker
	// that dies between claiming and writing an outcome strands its
	// batch in processing; the age bound keeps the sweep from stealing a
	// live worker's in-flight claims.
	RequeueProcessing(ctx context.Context, tx Tx, olderThan time.Duration) (int, error)
	ListByOrderID(ctx context.Context, tx Tx, orderID string) ([]*model.NotificationJob, error)
	ListTerminallyFailed(ctx context.Context, tx Tx, limit int) ([]*model.NotificationJob, error)
}
