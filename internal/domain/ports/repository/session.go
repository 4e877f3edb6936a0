package repository

import (
	"context"

	"skyline-store/internal/domain/model"
)

// PaymentSessionRepository stores checkout attempts and their outcomes.
type PaymentSessionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.PaymentSession) error
	FindByExternalID(ctx context.Context, tx Tx, externalID string) (*model.PaymentSession, error)
	// MarkTerminal flips a pending session to a terminal status. Returns
	// false when the session was already terminal, which is the
	// idempotency signal for redelivered webhook events.
	MarkTerminal(ctx context.Context, tx Tx, id string, status model.SessionStatus) (bool, error)
}
