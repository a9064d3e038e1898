package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("STRIPE_BASE_URL", "")
	t.Setenv("ADMIN_TOKEN_TTL", "")
	t.Setenv("NOTIFY_PROVIDER", "")
	t.Setenv("STRIPE_PRICE_STARTER_MONTHLY", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.StripeBaseURL != "https://api.stripe.com" {
		t.Fatalf("expected default stripe base url, got %s", cfg.StripeBaseURL)
	}
	if cfg.AdminTokenTTL != 12*time.Hour {
		t.Fatalf("expected default token ttl, got %s", cfg.AdminTokenTTL)
	}
	if cfg.NotifyProvider != "none" {
		t.Fatalf("expected notifications disabled by default, got %q", cfg.NotifyProvider)
	}
	if len(cfg.StripePriceIDs) != 0 {
		t.Fatalf("expected no price overrides, got %v", cfg.StripePriceIDs)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("ADMIN_TOKEN_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://nexuscrux.com, https://www.nexuscrux.com,")
	t.Setenv("STRIPE_PRICE_GROWTH_ANNUAL", "price_live_growth_yearly")
	t.Setenv("NOTIFY_PROVIDER", " SendGrid ")
	t.Setenv("LAMBDA_PATH_PREFIX", "/make-server-fa18f4aa/api/")
	t.Setenv("REDIS_TLS", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.AdminTokenTTL != 30*time.Minute {
		t.Fatalf("expected ttl override, got %s", cfg.AdminTokenTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://www.nexuscrux.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.StripePriceIDs["growth_annual"] != "price_live_growth_yearly" {
		t.Fatalf("expected price override, got %v", cfg.StripePriceIDs)
	}
	if cfg.NotifyProvider != "sendgrid" {
		t.Fatalf("expected normalised provider, got %q", cfg.NotifyProvider)
	}
	if cfg.LambdaPathPrefix != "/make-server-fa18f4aa/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.LambdaPathPrefix)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRequiresDatabase(t *testing.T) {
	cfg := &Config{NotifyProvider: "pigeon"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"DATABASE_URL", "NOTIFY_PROVIDER"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}
