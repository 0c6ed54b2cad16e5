package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries all runtime settings, populated from the environment.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Database. Ignored when UseMemoryStore is set.
	DBHost string `envconfig:"DB_HOST" default:"localhost"`
	DBPort string `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"postgres"`
	DBPass string `envconfig:"DB_PASS"`
	DBName string `envconfig:"DB_NAME" default:"sokobot"`

	// Cloud SQL unix socket. When set, it replaces the TCP host/port pair.
	InstanceConnectionName string `envconfig:"INSTANCE_CONNECTION_NAME"`

	UseMemoryStore bool `envconfig:"USE_MEMORY_STORE"`

	TwilioAccountSID   string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `envconfig:"TWILIO_WHATSAPP_FROM"`

	DisableWebhookValidation bool `envconfig:"DISABLE_WEBHOOK_VALIDATION"`

	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
}

// Load reads .env for local development, then populates Config from the
// environment. Deployed environments inject variables directly and carry no
// .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Development reports whether the bot runs in development mode.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

// TwilioConfigured reports whether outbound WhatsApp delivery can work.
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppFrom != ""
}
