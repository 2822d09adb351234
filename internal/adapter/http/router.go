package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/iho/hongbao/internal/adapter/http/handler"
	"github.com/iho/hongbao/internal/adapter/http/middleware"
	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/auth"
	"github.com/iho/hongbao/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	EnvelopeHandler *handler.EnvelopeHandler
	BalanceHandler  *handler.BalanceHandler
	AdminHandler    *handler.AdminHandler
	HealthHandler   *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// JWTManager enables bearer auth on /api/v1 when set.
	JWTManager     *auth.JWTManager
	RateLimiter    *middleware.RateLimiter
	HTTPMetrics    *middleware.HTTPMetrics
	MetricsHandler http.Handler

	CORSAllowedOrigins []string
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.IdempotencyKeyHeader},
		ExposedHeaders: []string{middleware.IdempotencyReplayHeader},
	}).Handler)

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		authOn := cfg.JWTManager != nil
		if authOn {
			r.Use(middleware.Authenticate(cfg.JWTManager))
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		r.Group(func(r chi.Router) {
			if authOn {
				r.Use(middleware.RequireRole(domain.RoleService))
			}

			r.Route("/envelopes", func(r chi.Router) {
				r.Post("/", cfg.EnvelopeHandler.Create)
				r.Get("/{id}", cfg.EnvelopeHandler.Get)
				r.Post("/{id}/claims", cfg.EnvelopeHandler.Claim)
				r.Get("/{id}/ranking", cfg.EnvelopeHandler.Ranking)
				r.Post("/{id}/relay", cfg.EnvelopeHandler.Relay)
				r.Post("/{id}/cancel", cfg.EnvelopeHandler.Cancel)
			})
			r.Get("/chats/{chatId}/envelopes", cfg.EnvelopeHandler.ListByChat)

			r.Route("/users/{userId}", func(r chi.Router) {
				r.Get("/balances", cfg.BalanceHandler.List)
				r.Get("/balances/{asset}", cfg.BalanceHandler.Get)
				r.Get("/entries", cfg.BalanceHandler.Entries)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			if authOn {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
			}

			r.Post("/adjustments", cfg.AdminHandler.Adjust)
			r.Get("/reconciliation", cfg.AdminHandler.Reconciliation)
			r.Get("/envelopes/{id}/verify", cfg.AdminHandler.VerifyEnvelope)
		})
	})

	return r
}
