package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	// PublicAPIKey is the publishable key the marketing site sends as a
	// bearer token on intake calls. Empty disables the check.
	PublicAPIKey       string
	AdminJWTSecret     string
	AdminTokenTTL      time.Duration
	CORSAllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	StripeSecretKey  string
	StripeBaseURL    string
	StripeAPIVersion string
	// StripePriceIDs maps "<plan>_<cycle>" to a Stripe price id.
	StripePriceIDs map[string]string

	// Submission notifications
	NotifyProvider    string
	NotifyToEmail     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	LambdaPathPrefix string
}

var pricedPlans = []string{"starter", "growth", "scale"}
var billingCycles = []string{"monthly", "annual"}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		PublicAPIKey:       getEnv("PUBLIC_API_KEY", ""),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		AdminTokenTTL:      getEnvAsDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		StripeSecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
		StripeBaseURL:    getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
		StripeAPIVersion: getEnv("STRIPE_API_VERSION", "2024-11-20.acacia"),
		StripePriceIDs:   loadPriceIDs(),

		NotifyProvider:    strings.ToLower(strings.TrimSpace(getEnv("NOTIFY_PROVIDER", "none"))),
		NotifyToEmail:     getEnv("NOTIFY_TO_EMAIL", ""),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "NexusCrux"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		LambdaPathPrefix: strings.TrimRight(getEnv("LAMBDA_PATH_PREFIX", ""), "/"),
	}
}

// Validate reports settings the API cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.NotifyProvider {
	case "", "none", "sendgrid", "ses":
	default:
		errs = append(errs, errors.New("NOTIFY_PROVIDER must be one of none, sendgrid, ses"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs against live infrastructure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// loadPriceIDs reads STRIPE_PRICE_<PLAN>_<CYCLE> overrides.
func loadPriceIDs() map[string]string {
	ids := make(map[string]string, len(pricedPlans)*len(billingCycles))
	for _, plan := range pricedPlans {
		for _, cycle := range billingCycles {
			key := "STRIPE_PRICE_" + strings.ToUpper(plan) + "_" + strings.ToUpper(cycle)
			if v := getEnv(key, ""); v != "" {
				ids[plan+"_"+cycle] = v
			}
		}
	}
	return ids
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
