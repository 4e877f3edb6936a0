// File: internal/infra/adapters/notify/noop.go
package notify

import (
	"context"
	"sync"

	"skyline-store/internal/domain/ports/adapter"
)

var (
	_ adapter.Mailer       = (*NoopMailer)(nil)
	_ adapter.ChatNotifier = (*NoopChatNotifier)(nil)
)

// NoopMailer records sends in memory. Used in dev mode and tests.
type NoopMailer struct {
	mu   sync.Mutex
	Sent []NoopMessage
}

type NoopMessage struct {
	To      string
	Subject string
	Body    []byte
}

func NewNoopMailer() *NoopMailer { return &NoopMailer{} }

func (m *NoopMailer) Name() string { return "noop-mailer" }

func (m *NoopMailer) Send(_ context.Context, to, subject string, htmlBody []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, NoopMessage{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// NoopChatNotifier records posts in memory.
type NoopChatNotifier struct {
	mu     sync.Mutex
	Posted [][]byte
}

func NewNoopChatNotifier() *NoopChatNotifier { return &NoopChatNotifier{} }

func (n *NoopChatNotifier) Name() string { return "noop-chat" }

func (n *NoopChatNotifier) Post(_ context.Context, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Posted = append(n.Posted, append([]byte(nil), payload...))
	return nil
}
