package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/sokolabs/sokobot-backend/internal/config"
	"github.com/sokolabs/sokobot-backend/internal/handlers"
	"github.com/sokolabs/sokobot-backend/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, webhook *handlers.WebhookHandler, admin *handlers.AdminHandler) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to SokoBot Backend!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":        "/health",
				"webhook":       "/webhook/whatsapp",
				"test_whatsapp": "/test/whatsapp",
				"admin":         "/admin",
			},
		})
	})

	health := handlers.NewHealthHandler("1.0.0")
	app.Get("/health", health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// WhatsApp webhook - signature validation is skipped in development so
	// tunneled requests (ngrok and friends) get through.
	if cfg.Development() || cfg.DisableWebhookValidation {
		webhooks.Post("/whatsapp", webhook.HandleWebhook)
		log.Println("⚠️  WhatsApp webhook validation DISABLED")
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(cfg.TwilioAuthToken), webhook.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if cfg.Development() {
		app.Post("/test/whatsapp", webhook.HandleTestWebhook)
	}

	// ========== ADMIN ROUTES ==========
	adminGroup := app.Group("/admin")
	adminGroup.Get("/sessions", admin.GetSessionStats)
	adminGroup.Get("/overview", admin.GetPlatformOverview)
}
