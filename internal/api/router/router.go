package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgs-intellisol/nexuscrux-website/internal/auth"
	httpmiddleware "github.com/dgs-intellisol/nexuscrux-website/internal/http/middleware"
	"github.com/dgs-intellisol/nexuscrux-website/internal/intake"
	"github.com/dgs-intellisol/nexuscrux-website/internal/subscriptions"
	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger        *logging.Logger
	Kinds         []*intake.Kind
	Intake        *intake.Handler
	Subscriptions *subscriptions.Handler

	// PublicAPIKey guards the browser-facing submission routes.
	PublicAPIKey string
	// AdminAuthSecret signs operator tokens. Admin routes reject every
	// request when it is empty.
	AdminAuthSecret string
	Revocations     auth.RevocationStore

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Ping checks the database for /health. Optional.
	Ping func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	public := httpmiddleware.PublicKey(cfg.PublicAPIKey)
	viewer := httpmiddleware.OperatorAuth(cfg.AdminAuthSecret, cfg.Revocations, auth.RoleViewer, cfg.Logger)
	editor := httpmiddleware.OperatorAuth(cfg.AdminAuthSecret, cfg.Revocations, auth.RoleEditor, cfg.Logger)

	r.Get("/health", healthHandler(cfg.Ping))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Intake != nil {
		r.Route("/contact", func(contact chi.Router) {
			for _, k := range cfg.Kinds {
				contact.Route("/"+k.Name, func(kr chi.Router) {
					create := public
					if k.AdminCreate {
						create = editor
					}
					kr.With(create).Post("/", cfg.Intake.Create(k))
					kr.With(viewer).Get("/", cfg.Intake.List(k))
					kr.With(viewer).Get("/{id}", cfg.Intake.Get(k))
					kr.With(editor).Patch("/{id}", cfg.Intake.Update(k))
				})
			}
		})
	}

	if cfg.Subscriptions != nil {
		r.Route("/subscriptions", func(subs chi.Router) {
			subs.With(public).Post("/create", cfg.Subscriptions.Create)
			subs.With(viewer).Get("/status/{id}", cfg.Subscriptions.Status)
			subs.With(editor).Post("/cancel/{id}", cfg.Subscriptions.Cancel)
		})
	}

	r.With(viewer).Post("/auth/revoke", auth.RevokeHandler(cfg.Revocations, cfg.Logger))

	return r
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "database": err.Error()})
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
