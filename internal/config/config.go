package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-level settings for the API and worker.
type Config struct {
	Port string

	AWSRegion string

	OrdersTable      string
	ProductsTable    string
	IdempotencyTable string

	FulfillmentQueueURL string

	StripeSecretKey string
	Currency        string

	IdempotencyTTL time.Duration

	RunLocal bool
}

// Load reads configuration from the environment (and a .env file when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		OrdersTable:         getEnv("ORDERS_TABLE", ""),
		ProductsTable:       getEnv("PRODUCTS_TABLE", ""),
		IdempotencyTable:    getEnv("IDEMPOTENCY_TABLE", ""),
		FulfillmentQueueURL: getEnv("FULFILLMENT_QUEUE_URL", ""),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		Currency:            getEnv("CURRENCY", "usd"),
		IdempotencyTTL:      48 * time.Hour,
		RunLocal:            getEnv("RUN_LOCAL", "") == "true",
	}

	if ttl := getEnv("IDEMPOTENCY_TTL_HOURS", ""); ttl != "" {
		var hours int
		if _, err := fmt.Sscanf(ttl, "%d", &hours); err != nil || hours <= 0 {
			return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL_HOURS: %q", ttl)
		}
		cfg.IdempotencyTTL = time.Duration(hours) * time.Hour
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings every process needs. The Stripe key is allowed
// to be empty: order creation then fails with a payment-unavailable error
// instead of at startup.
func (c *Config) Validate() error {
	if c.OrdersTable == "" {
		return fmt.Errorf("ORDERS_TABLE is required")
	}
	if c.ProductsTable == "" {
		return fmt.Errorf("PRODUCTS_TABLE is required")
	}
	if c.IdempotencyTable == "" {
		return fmt.Errorf("IDEMPOTENCY_TABLE is required")
	}
	if c.Currency == "" {
		return fmt.Errorf("CURRENCY is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
