package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"penny_watch/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram mirrors alerts as plain text into a Telegram chat.
type Telegram struct {
	api    telegramAPI
	chatID int64
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

// Name identifies the sink in logs and errors.
func (t *Telegram) Name() string {
	return "telegram"
}

// Send posts the alert text to the configured chat.
func (t *Telegram) Send(_ context.Context, alert model.Alert, _ model.Identity) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatText(alert))
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return &DeliveryError{Sink: t.Name(), Err: err}
	}
	return nil
}

// FormatText renders an alert for plain-text destinations.
func FormatText(alert model.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Filter %s found in message!\n\n", alert.Filter)
	title := alert.Title
	if title == "" {
		title = noTitle
	}
	b.WriteString(title)
	if alert.Address != "" {
		fmt.Fprintf(&b, "\nAddress: %s", alert.Address)
	}
	if alert.JumpURL != "" {
		b.WriteString("\n\n")
		b.WriteString(alert.JumpURL)
	}
	return b.String()
}
