package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/periodclose/internal/adapter/http/handler"
	"github.com/iho/periodclose/internal/adapter/http/middleware"
	"github.com/iho/periodclose/internal/infrastructure/metrics"
	"github.com/iho/periodclose/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BalanceHandler     *handler.BalanceHandler
	AllocationHandler  *handler.AllocationHandler
	RevaluationHandler *handler.RevaluationHandler
	ClosingHandler     *handler.ClosingHandler
	DebtHandler        *handler.DebtHandler
	VoucherHandler     *handler.VoucherHandler
	HealthHandler      *handler.HealthHandler

	// Optional
	ReconciliationHandler *handler.ReconciliationHandler
	IdempotencyStore      usecase.IdempotencyStore
	IdempotencyTTL        time.Duration
	RateLimiter           *middleware.RateLimiter
	TrustProxyHeaders     bool
	Metrics               *metrics.Metrics
	MetricsHandler        http.Handler
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.Logger).WithTTL(cfg.IdempotencyTTL).Wrap)
		}

		r.Get("/balances", cfg.BalanceHandler.Snapshot)
		r.Delete("/chart-cache", cfg.BalanceHandler.DropChartCache)
		r.Get("/period-lock", cfg.BalanceHandler.GetLock)
		r.Put("/period-lock", cfg.BalanceHandler.SetLock)

		r.Get("/vouchers/{id}", cfg.VoucherHandler.Get)

		r.Route("/allocations", func(r chi.Router) {
			r.Post("/preview", cfg.AllocationHandler.Preview)
			r.Post("/execute", cfg.AllocationHandler.Execute)
			r.Post("/vouchers/{id}/reverse", cfg.AllocationHandler.Reverse)
		})

		r.Route("/revaluations", func(r chi.Router) {
			r.Post("/preview", cfg.RevaluationHandler.Preview)
			r.Post("/execute", cfg.RevaluationHandler.Execute)
		})

		r.Route("/closings/{period}", func(r chi.Router) {
			r.Get("/preview", cfg.ClosingHandler.Preview)
			r.Post("/execute", cfg.ClosingHandler.Execute)
		})

		r.Route("/debts", func(r chi.Router) {
			r.Post("/allocations/preview", cfg.DebtHandler.Suggest)
			r.Get("/payments/{id}/allocations", cfg.DebtHandler.ListAllocations)
			r.Post("/payments/{id}/allocations", cfg.DebtHandler.Allocate)
			r.Post("/payments/{id}/reversals", cfg.DebtHandler.Reverse)
		})

		if cfg.ReconciliationHandler != nil {
			r.Get("/reconciliations/{period}", cfg.ReconciliationHandler.Reconcile)
		}
	})

	return r
}
