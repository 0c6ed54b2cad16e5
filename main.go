package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/sokolabs/sokobot-backend/database"
	"github.com/sokolabs/sokobot-backend/internal/config"
	"github.com/sokolabs/sokobot-backend/internal/escrow"
	"github.com/sokolabs/sokobot-backend/internal/flow"
	"github.com/sokolabs/sokobot-backend/internal/handlers"
	"github.com/sokolabs/sokobot-backend/internal/messaging"
	"github.com/sokolabs/sokobot-backend/internal/models"
	"github.com/sokolabs/sokobot-backend/internal/routes"
	"github.com/sokolabs/sokobot-backend/internal/session"
	"github.com/sokolabs/sokobot-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Storage: in-memory for testing, PostgreSQL otherwise.
	var store storage.Store
	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		log.Println("🔄 Running database migrations...")
		if err := db.AutoMigrate(
			&models.User{},
			&models.Shop{},
			&models.SessionSnapshot{},
		); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
	}

	// Outbound messaging: fall back to log-only delivery when Twilio isn't
	// configured so the bot stays testable locally.
	var msgr messaging.Messenger
	if cfg.TwilioConfigured() {
		twilioMsgr, err := messaging.NewTwilioMessenger(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
		if err != nil {
			log.Fatal("Failed to initialize Twilio messenger:", err)
		}
		msgr = twilioMsgr
		log.Println("✅ Twilio messenger initialized")
	} else {
		log.Println("⚠️  Twilio credentials not found - outbound messages will only be logged")
		msgr = messaging.NewLogMessenger()
	}

	escrowClient := escrow.NewLoggingClient()

	// Conversation state.
	sessions := session.NewStore(store, cfg.SessionTTL)
	cleaner := session.NewCleaner(sessions, cfg.SweepInterval)
	cleaner.Start()

	flowHandlers := flow.NewHandlers(sessions, store, msgr, escrowClient)
	router := flow.NewRouter(sessions, flowHandlers)

	webhookHandler := handlers.NewWebhookHandler(router)
	adminHandler := handlers.NewAdminHandler(store, sessions)

	app := fiber.New(fiber.Config{
		AppName: "SokoBot Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, cfg, webhookHandler, adminHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Println("========================================")
	log.Printf("🚀 SokoBot Backend starting on port %s", cfg.Port)
	log.Printf("📊 Storage: %s", storageType(cfg))
	log.Printf("🌍 Environment: %s", cfg.Environment)
	log.Printf("📱 WhatsApp: %s", whatsappStatus(cfg))
	log.Printf("⏱  Session TTL: %s, sweep every %s", cfg.SessionTTL, cfg.SweepInterval)
	log.Println("========================================")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Listen(":" + cfg.Port)
	}()

	// Graceful shutdown: stop sweeping, stop accepting requests, then drain
	// pending session snapshot syncs before exiting.
	select {
	case err := <-serverErr:
		log.Fatal("Server error:", err)
	case <-c:
		log.Println("\n🛑 Gracefully shutting down...")
		cleaner.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		sessions.Wait()
		log.Println("✅ Session snapshots flushed, goodbye")
	}
}

func storageType(cfg *config.Config) string {
	if cfg.UseMemoryStore {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func whatsappStatus(cfg *config.Config) string {
	if !cfg.TwilioConfigured() {
		return "Not configured (dry-run)"
	}
	return "Configured"
}
