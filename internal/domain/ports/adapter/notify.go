package adapter

import "context"

// Mailer is the hex port for transactional email delivery. The body is
// already rendered; implementations only move bytes.
type Mailer interface {
	Name() string
	Send(ctx context.Context, to, subject string, htmlBody []byte) error
}

// ChatNotifier posts a structured operational message to a chat channel
// (Discord webhook, Telegram chat). The payload is the rendered message
// captured at enqueue time.
type ChatNotifier interface {
	Name() string
	Post(ctx context.Context, payload []byte) error
}
