package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"skyline-store/internal/domain"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusRefunded  OrderStatus = "refunded" // set by the admin surface, never by the pipeline
)

// Order is the durable record of a captured payment. Exactly one exists
// per completed session; SessionID carries a unique constraint in storage.
type Order struct {
	ID              string // UUID
	OrderNumber     string // human-legible, collision-resistant
	SessionID       string // UUID -> PaymentSession, unique
	CustomerEmail   string
	CustomerName    string
	AmountCents     int64
	Currency        string
	ProductID       string
	ProductName     string
	Duration        string
	PaymentMethod   string
	PaymentIntentID string // processor payment intent reference
	Status          OrderStatus
	// NeedsFulfillment flags an order whose license claim found an empty
	// pool. The payment stays captured; an operator assigns a key by hand.
	NeedsFulfillment bool
	CreatedAt        time.Time
}

func NewUUID() string {
	return uuid.NewString()
}

// NewOrderNumber returns an order number like SKY-01J8ZQ3M7V....
// ULIDs sort by creation time, which keeps support lookups sane.
func NewOrderNumber() string {
	return "SKY-" + ulid.Make().String()
}

// NewOrderFromSession materializes an order from a completed session snapshot.
func NewOrderFromSession(s *PaymentSession, paymentMethod, paymentIntentID string) (*Order, error) {
	if s == nil {
		return nil, domain.ErrInvalidArgument
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Order{
		ID:              NewUUID(),
		OrderNumber:     NewOrderNumber(),
		SessionID:       s.ID,
		CustomerEmail:   s.CustomerEmail,
		CustomerName:    s.CustomerName,
		AmountCents:     s.TotalCents,
		Currency:        s.Currency,
		ProductID:       s.Item.ProductID,
		ProductName:     s.Item.ProductName,
		Duration:        s.Item.Duration,
		PaymentMethod:   paymentMethod,
		PaymentIntentID: paymentIntentID,
		Status:          OrderStatusCompleted,
		CreatedAt:       time.Now(),
	}, nil
}
