package messaging

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/sokolabs/sokobot-backend/internal/phone"
)

// LogMessenger writes outbound messages to the process log instead of
// delivering them. It stands in for Twilio in development and tests.
type LogMessenger struct{}

// NewLogMessenger creates a messenger that only logs.
func NewLogMessenger() *LogMessenger {
	return &LogMessenger{}
}

// SendText logs the message and returns a synthetic delivery reference.
func (m *LogMessenger) SendText(ctx context.Context, address, body string) (string, error) {
	key, err := phone.Normalize(address)
	if err != nil {
		return "", ErrInvalidAddress
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	log.Printf("📤 [dry-run] To %s:\n%s", key, body)
	return uuid.NewString(), nil
}

// SendMenu renders the menu and logs it like a text message.
func (m *LogMessenger) SendMenu(ctx context.Context, address, title string, options []MenuOption, footer string) (string, error) {
	return m.SendText(ctx, address, RenderMenu(title, options, footer))
}
