package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gosettle/internal/adapter/http/handler"
	"github.com/iho/gosettle/internal/adapter/http/middleware"
	"github.com/iho/gosettle/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WeekHandler       *handler.WeekHandler
	LedgerHandler     *handler.LedgerHandler
	SettlementHandler *handler.SettlementHandler
	HealthHandler     *handler.HealthHandler
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// RateLimiter guards forced recalculation when set.
	RateLimiter *middleware.RateLimiter
	Logger      zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics)

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/weeks", func(r chi.Router) {
			r.Get("/", cfg.WeekHandler.List)
			r.Post("/", cfg.WeekHandler.Create)
			r.Get("/{id}", cfg.WeekHandler.Get)
			r.Patch("/{id}", cfg.WeekHandler.Update)
			r.Delete("/{id}", cfg.WeekHandler.Delete)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", cfg.LedgerHandler.List)
			r.Post("/deposits", cfg.LedgerHandler.Deposit)
			r.Post("/withdrawals", cfg.LedgerHandler.Withdraw)
			r.Get("/summary/{pool}", cfg.LedgerHandler.Summary)
		})

		r.Get("/state", cfg.SettlementHandler.State)
		r.Get("/performance", cfg.SettlementHandler.Performance)

		r.Route("/settlements", func(r chi.Router) {
			recalc := http.Handler(http.HandlerFunc(cfg.SettlementHandler.Recalculate))
			if cfg.RateLimiter != nil {
				recalc = cfg.RateLimiter.Limit(recalc)
			}
			r.Method(http.MethodPost, "/", recalc)
			r.Get("/reconcile", cfg.SettlementHandler.Reconcile)
		})
	})

	return r
}
