package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/sokolabs/sokobot-backend/internal/flow"
	"github.com/sokolabs/sokobot-backend/internal/phone"
)

// WebhookHandler turns Twilio WhatsApp webhooks into flow events.
type WebhookHandler struct {
	router *flow.Router
}

// NewWebhookHandler creates a webhook handler over the flow router.
func NewWebhookHandler(router *flow.Router) *WebhookHandler {
	return &WebhookHandler{router: router}
}

// TwilioWebhookPayload is the form body Twilio posts for an inbound
// WhatsApp message. Interactive replies carry the selected id in ListId or
// ButtonPayload alongside the button's label in Body.
type TwilioWebhookPayload struct {
	MessageSid          string `form:"MessageSid"`
	AccountSid          string `form:"AccountSid"`
	MessagingServiceSid string `form:"MessagingServiceSid"`
	From                string `form:"From"` // whatsapp:+254712345678
	To                  string `form:"To"`
	Body                string `form:"Body"`
	ButtonPayload       string `form:"ButtonPayload"`
	ListId              string `form:"ListId"`
	NumMedia            string `form:"NumMedia"`
}

// HandleWebhook processes an inbound WhatsApp message. Twilio retries on
// non-2xx responses, so malformed or empty events are acknowledged with 200
// after logging rather than rejected.
func (h *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	log.Printf("📱 WhatsApp message from %s: %s", payload.From, payload.Body)

	key, err := phone.Normalize(payload.From)
	if err != nil {
		log.Printf("Dropping webhook with bad sender %q: %v", payload.From, err)
		return c.SendStatus(fiber.StatusOK)
	}

	ev := payload.toEvent(key)
	if ev.Empty() {
		// Status callbacks and media-only messages land here.
		return c.SendStatus(fiber.StatusOK)
	}

	h.router.ProcessEvent(c.Context(), ev)
	return c.SendStatus(fiber.StatusOK)
}

// toEvent picks the interactive selection id when one is present; the Body
// of an interactive reply is only the human-readable label.
func (p *TwilioWebhookPayload) toEvent(key string) flow.Event {
	switch {
	case p.ListId != "":
		return flow.NewSelectionEvent(key, p.ListId)
	case p.ButtonPayload != "":
		return flow.NewSelectionEvent(key, p.ButtonPayload)
	default:
		return flow.NewTextEvent(key, p.Body)
	}
}

// TestWebhookPayload drives the bot without Twilio during development.
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook processes a JSON test message (development only).
func (h *WebhookHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	key, err := phone.Normalize(payload.From)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid sender address",
		})
	}

	log.Printf("🧪 Test webhook from %s: %s", key, payload.Message)
	h.router.ProcessEvent(c.Context(), flow.NewTextEvent(key, payload.Message))

	return c.JSON(fiber.Map{"success": true})
}
