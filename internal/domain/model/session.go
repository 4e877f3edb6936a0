package model

import (
	"time"

	"skyline-store/internal/domain"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"   // checkout created; awaiting processor outcome
	SessionStatusCompleted SessionStatus = "completed" // processor reported a successful payment
	SessionStatusExpired   SessionStatus = "expired"   // checkout abandoned; processor expired it
	SessionStatusFailed    SessionStatus = "failed"    // payment attempt failed at the processor
)

// Terminal reports whether the status can no longer change.
// Transitions are monotonic: once terminal, redelivered events are no-ops.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusExpired || s == SessionStatusFailed
}

// LineItem is the immutable snapshot of what the customer is buying,
// captured at checkout start so later catalog edits never change it.
type LineItem struct {
	ProductID      string
	ProductName    string
	Duration       string // e.g. "7d", "30d", "lifetime"
	UnitPriceCents int64
	Quantity       int
}

// PaymentSession records one checkout attempt and its terminal outcome.
type PaymentSession struct {
	ID                string // UUID
	ExternalSessionID string // processor-side session id, unique
	CustomerEmail     string
	CustomerName      string
	Item              LineItem
	CouponCode        *string
	SubtotalCents     int64
	TotalCents        int64
	Currency          string
	Status            SessionStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewPaymentSession validates and constructs a pending session.
func NewPaymentSession(externalID, email, name string, item LineItem, couponCode *string, subtotal, total int64, currency string) (*PaymentSession, error) {
	if externalID == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	if item.ProductID == "" || item.Duration == "" || item.Quantity <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if total <= 0 || subtotal <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if currency == "" {
		currency = "USD"
	}
	now := time.Now()
	return &PaymentSession{
		ID:                NewUUID(),
		ExternalSessionID: externalID,
		CustomerEmail:     email,
		CustomerName:      name,
		Item:              item,
		CouponCode:        couponCode,
		SubtotalCents:     subtotal,
		TotalCents:        total,
		Currency:          currency,
		Status:            SessionStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Validate checks the snapshot is structurally sound enough to fulfill.
// Used by the order materializer before creating an order from it.
func (s *PaymentSession) Validate() error {
	if s.Item.ProductID == "" || s.Item.Duration == "" || s.Item.Quantity <= 0 {
		return domain.ErrValidation
	}
	if s.TotalCents <= 0 {
		return domain.ErrValidation
	}
	if s.CustomerEmail == "" {
		return domain.ErrValidation
	}
	return nil
}
