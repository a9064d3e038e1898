package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dgs-intellisol/nexuscrux-website/internal/api/router"
	appconfig "github.com/dgs-intellisol/nexuscrux-website/internal/config"
	"github.com/dgs-intellisol/nexuscrux-website/internal/intake"
	"github.com/dgs-intellisol/nexuscrux-website/internal/notify"
	"github.com/dgs-intellisol/nexuscrux-website/internal/observability/metrics"
	"github.com/dgs-intellisol/nexuscrux-website/internal/store"
	"github.com/dgs-intellisol/nexuscrux-website/internal/subscriptions"
	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

// Dependencies are the long-lived clients the HTTP handler is built from.
type Dependencies struct {
	Store    store.Gateway
	Ping     func(ctx context.Context) error
	Redis    *redis.Client
	Email    notify.EmailSender
	Registry *prometheus.Registry
	// Processor overrides the Stripe client. Tests use it.
	Processor subscriptions.Processor
}

// API is a fully wired HTTP handler plus the resources it owns.
type API struct {
	Handler http.Handler
	closers []func()
}

// Close releases the database pool and Redis client.
func (a *API) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// BuildAPI connects to Postgres and Redis and returns the routed handler.
func BuildAPI(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*API, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	api := &API{closers: []func(){pool.Close}}

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		api.closers = append(api.closers, func() { _ = redisClient.Close() })
	}

	sender, provider, err := BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		api.Close()
		return nil, err
	}
	logger.Info("notification sender selected", "provider", provider)

	api.Handler = BuildHandler(cfg, Dependencies{
		Store:    store.NewPostgresGateway(pool),
		Ping:     pool.Ping,
		Redis:    redisClient,
		Email:    sender,
		Registry: prometheus.NewRegistry(),
	}, logger)
	return api, nil
}

// BuildHandler wires handlers, metrics and auth into the router.
func BuildHandler(cfg *appconfig.Config, deps Dependencies, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	intakeMetrics := metrics.NewIntakeMetrics(reg)
	subscriptionMetrics := metrics.NewSubscriptionMetrics(reg)

	intakeOpts := []intake.Option{intake.WithMetrics(intakeMetrics)}
	notifier := BuildNotifier(deps.Email, cfg, logger)
	if notifier != nil {
		intakeOpts = append(intakeOpts, intake.WithNotifier(notifier))
	}

	processor := deps.Processor
	if processor == nil {
		if cfg.StripeSecretKey == "" {
			logger.Warn("STRIPE_SECRET_KEY empty; subscription calls will be rejected by Stripe")
		}
		processor = subscriptions.NewStripeClient(cfg.StripeSecretKey, logger).
			WithBaseURL(cfg.StripeBaseURL).
			WithAPIVersion(cfg.StripeAPIVersion).
			WithLatencyObserver(subscriptionMetrics)
	}
	mirror := subscriptions.NewStoreMirror(deps.Store, subscriptionMetrics, logger)
	service := subscriptions.NewService(processor, subscriptions.NewPriceBook(cfg.StripePriceIDs), mirror, logger).
		WithOutcomes(subscriptionMetrics)
	if notifier != nil {
		service.WithNotifier(notifier)
	}

	return router.New(&router.Config{
		Logger:             logger,
		Kinds:              intake.Catalogue(),
		Intake:             intake.NewHandler(deps.Store, logger, intakeOpts...),
		Subscriptions:      subscriptions.NewHandler(service, logger),
		PublicAPIKey:       cfg.PublicAPIKey,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		Revocations:        BuildRevocationStore(deps.Redis),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Ping:               deps.Ping,
	})
}
