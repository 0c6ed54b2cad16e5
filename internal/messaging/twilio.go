package messaging

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/sokolabs/sokobot-backend/internal/phone"
)

// TwilioMessenger sends WhatsApp messages via the Twilio API.
type TwilioMessenger struct {
	client *twilio.RestClient
	from   string // Twilio WhatsApp number, e.g. "whatsapp:+14155238886"
}

// NewTwilioMessenger creates a Twilio-backed messenger from credentials.
func NewTwilioMessenger(accountSID, authToken, from string) (*TwilioMessenger, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioMessenger{
		client: client,
		from:   from,
	}, nil
}

// SendText sends a plain WhatsApp message and returns the Twilio message SID.
func (t *TwilioMessenger) SendText(ctx context.Context, address, body string) (string, error) {
	key, err := phone.Normalize(address)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if err := ctx.Err(); err != nil {
		return "", &TransportError{Address: key, Err: err}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", key))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("Failed to send WhatsApp message to %s: %v", key, err)
		return "", &TransportError{Address: key, Err: err}
	}

	return deliveryRef(resp.Sid), nil
}

// SendMenu renders a titled, numbered option list as a text message. Users
// answer with the option number, so IDs and menu positions must agree with
// what the flow handlers expect.
func (t *TwilioMessenger) SendMenu(ctx context.Context, address, title string, options []MenuOption, footer string) (string, error) {
	return t.SendText(ctx, address, RenderMenu(title, options, footer))
}

// RenderMenu builds the numbered text body used for menus on channels
// without native list support.
func RenderMenu(title string, options []MenuOption, footer string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, opt.Label)
	}
	if footer != "" {
		b.WriteString("\n\n")
		b.WriteString(footer)
	}
	return b.String()
}

func deliveryRef(sid *string) string {
	if sid != nil && *sid != "" {
		return *sid
	}
	return uuid.NewString()
}
