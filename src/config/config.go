package config

import (
	"fmt"
	"log"
	"os"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	// Every statement carries a 2s server-side bound and connects time
	// out after 5s, so a slow query can never hold a pool connection.
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s connect_timeout=5 statement_timeout=2000", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

type GatewayConfig struct {
	BaseURL       string
	PublicKey     string
	SecretKey     string
	WebhookSecret string
}

// MustGatewayConfig reads the payment gateway credentials from the
// environment. Missing keys are a startup error, never a runtime
// fallback.
func MustGatewayConfig() GatewayConfig {
	cfg := GatewayConfig{
		BaseURL:       os.Getenv("FLW_BASE_URL"),
		PublicKey:     os.Getenv("FLW_PUBLIC_KEY"),
		SecretKey:     os.Getenv("FLW_SECRET_KEY"),
		WebhookSecret: os.Getenv("FLW_WEBHOOK_SECRET"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.flutterwave.com/v3"
	}
	if cfg.PublicKey == "" || cfg.SecretKey == "" || cfg.WebhookSecret == "" {
		log.Fatalln("FLW_PUBLIC_KEY, FLW_SECRET_KEY and FLW_WEBHOOK_SECRET must be set")
	}
	return cfg
}

// PendingTTL is how long a transaction may sit in pending before the
// reconciliation sweep fails it.
func PendingTTL() time.Duration {
	ttl := os.Getenv("PAYMENT_PENDING_TTL")
	if ttl == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(ttl)
	if err != nil {
		log.Printf("Invalid PAYMENT_PENDING_TTL %q, using default: %s\n", ttl, err.Error())
		return 24 * time.Hour
	}
	return d
}
