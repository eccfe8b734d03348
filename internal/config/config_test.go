package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ORDERS_TABLE", "orders")
	t.Setenv("PRODUCTS_TABLE", "products")
	t.Setenv("IDEMPOTENCY_TABLE", "idempotency")
	t.Setenv("AWS_REGION", "")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("default port = %s", cfg.Port)
	}
	if cfg.Currency != "usd" {
		t.Fatalf("default currency = %s", cfg.Currency)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("default TTL = %v", cfg.IdempotencyTTL)
	}
	if cfg.RunLocal {
		t.Fatal("RunLocal must default to false")
	}
	if cfg.AWSRegion != "us-east-1" {
		t.Fatalf("default region = %s", cfg.AWSRegion)
	}
}

func TestLoad_RegionOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("AWS_REGION", "eu-central-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AWSRegion != "eu-central-1" {
		t.Fatalf("region = %s", cfg.AWSRegion)
	}
}

func TestLoad_MissingTable(t *testing.T) {
	t.Setenv("ORDERS_TABLE", "orders")
	t.Setenv("PRODUCTS_TABLE", "products")
	t.Setenv("IDEMPOTENCY_TABLE", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when IDEMPOTENCY_TABLE is missing")
	}
}

func TestLoad_TTLOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("IDEMPOTENCY_TTL_HOURS", "24")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("TTL = %v, want 24h", cfg.IdempotencyTTL)
	}
}

func TestLoad_TTLInvalid(t *testing.T) {
	setRequired(t)
	t.Setenv("IDEMPOTENCY_TTL_HOURS", "zero")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric TTL")
	}
}

func TestLoad_RunLocal(t *testing.T) {
	setRequired(t)
	t.Setenv("RUN_LOCAL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.RunLocal {
		t.Fatal("RUN_LOCAL=true not honored")
	}
}
