package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all process-wide settings, loaded once at startup and passed
// explicitly to the components that need them.
type Config struct {
	Port string
	Env  string // "development" or "production"

	MongoURI string
	MongoDB  string

	JWTSecret string

	// Seller console credentials. Seller auth is purely credential-based;
	// it never consults the users collection.
	SellerEmail    string
	SellerPassword string

	StripeSecretKey     string
	StripeWebhookSecret string

	PostmarkToken string
	EmailSender   string

	AllowedOrigins []string
}

// Load reads the configuration from environment variables. Callers are
// expected to have loaded a .env file first if one exists.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getenv("PORT", "4000"),
		Env:                 getenv("APP_ENV", "development"),
		MongoURI:            os.Getenv("MONGODB_URI"),
		MongoDB:             getenv("MONGODB_DB", "greencart"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SellerEmail:         os.Getenv("SELLER_EMAIL"),
		SellerPassword:      os.Getenv("SELLER_PASSWORD"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PostmarkToken:       os.Getenv("POSTMARK_API_TOKEN"),
		EmailSender:         os.Getenv("EMAIL_SENDER"),
	}

	origins := getenv("ALLOWED_ORIGINS", "http://localhost:5173")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return cfg, nil
}

// Production reports whether the process runs with production settings
// (secure cookies, JSON logs).
func (c *Config) Production() bool {
	return c.Env == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
