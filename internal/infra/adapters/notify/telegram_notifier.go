// File: internal/infra/adapters/notify/telegram_notifier.go
package notify

import (
	"context"
	"encoding/json"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"skyline-store/internal/domain/ports/adapter"
)

var _ adapter.ChatNotifier = (*TelegramNotifier)(nil)

// TelegramNotifier sends the sale alert to a fixed ops chat. The queued
// payload is embed JSON shaped for Discord, so we flatten it to text
// here rather than render a second format at enqueue time.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Post(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, flattenEmbed(payload))
	_, err := t.bot.Send(msg)
	return err
}

// flattenEmbed turns the Discord webhook body into a plain text message.
// Unknown shapes fall back to the raw JSON so nothing is dropped.
func flattenEmbed(payload []byte) string {
	var body struct {
		Embeds []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Fields      []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"embeds"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || len(body.Embeds) == 0 {
		return string(payload)
	}

	e := body.Embeds[0]
	out := e.Title
	if e.Description != "" {
		out += "\n" + e.Description
	}
	for _, f := range e.Fields {
		out += "\n" + f.Name + ": " + f.Value
	}
	return out
}
