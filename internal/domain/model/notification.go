package model

import (
	"time"

	"skyline-store/internal/domain"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelChat  NotificationChannel = "chat"
)

type NotificationJobStatus string

const (
	NotificationStatusPending    NotificationJobStatus = "pending"
	NotificationStatusProcessing NotificationJobStatus = "processing" // exclusively held by one worker
	NotificationStatusSent       NotificationJobStatus = "sent"
	NotificationStatusFailed     NotificationJobStatus = "failed" // terminal after MaxAttempts
)

// NotificationJob is one queued outbound message. Payload is rendered in
// full at enqueue time so template changes never rewrite history.
type NotificationJob struct {
	ID           string // UUID
	OrderID      string
	Channel      NotificationChannel
	Recipient    string // email address; empty for chat (target comes from config)
	Subject      string // email subject; empty for chat
	Payload      []byte // rendered HTML (email) or embed JSON (chat)
	Status       NotificationJobStatus
	ErrorMessage *string
	Attempts     int
	CreatedAt    time.Time
	SentAt       *time.Time
}

// NewNotificationJob constructs a pending job with a rendered payload.
func NewNotificationJob(orderID string, channel NotificationChannel, recipient, subject string, payload []byte) (*NotificationJob, error) {
	if orderID == "" || len(payload) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if channel == ChannelEmail && recipient == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &NotificationJob{
		ID:        NewUUID(),
		OrderID:   orderID,
		Channel:   channel,
		Recipient: recipient,
		Subject:   subject,
		Payload:   payload,
		Status:    NotificationStatusPending,
		CreatedAt: time.Now(),
	}, nil
}
