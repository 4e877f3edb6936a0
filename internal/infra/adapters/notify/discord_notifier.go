// File: internal/infra/adapters/notify/discord_notifier.go
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"skyline-store/internal/domain/ports/adapter"
)

var _ adapter.ChatNotifier = (*DiscordNotifier)(nil)

// DiscordNotifier posts the rendered embed payload to a Discord webhook
// URL. The payload is the full webhook body, built at enqueue time.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewDiscordNotifier(webhookURL string) (*DiscordNotifier, error) {
	if webhookURL == "" {
		return nil, errors.New("discord webhook url empty")
	}
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) Post(ctx context.Context, payload []byte) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Discord answers 204 on success; 429 and 5xx are worth retrying.
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
