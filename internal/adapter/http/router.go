package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/agoramesh/walletd/internal/adapter/http/handler"
	"github.com/agoramesh/walletd/internal/adapter/http/middleware"
	"github.com/agoramesh/walletd/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler         *handler.WalletHandler
	EscrowHandler         *handler.EscrowHandler
	OrganizationHandler   *handler.OrganizationHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	Logger                zerolog.Logger
	RateLimitRPS          float64
	RateLimitBurst        int
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)
	r.Use(middleware.Actor)

	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Limit)
	}

	// Health and telemetry
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Organizations
		r.Route("/organizations", func(r chi.Router) {
			r.Post("/", cfg.OrganizationHandler.Create)
			r.Get("/{id}", cfg.OrganizationHandler.Get)
		})

		// Wallets and ledger primitives
		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", cfg.WalletHandler.Create)
			r.Get("/", cfg.WalletHandler.List)
			r.Get("/{id}", cfg.WalletHandler.Get)
			r.Put("/{id}/status", cfg.WalletHandler.SetStatus)
			r.Get("/{id}/transactions", cfg.WalletHandler.ListTransactions)
			r.Get("/{id}/escrows", cfg.EscrowHandler.ListByWallet)
			r.Post("/{id}/fund", cfg.WalletHandler.Fund)
			r.Post("/{id}/debit", cfg.WalletHandler.Debit)
			r.Post("/{id}/hold", cfg.WalletHandler.Hold)
			r.Post("/{id}/release", cfg.WalletHandler.Release)
			r.Post("/{id}/cancel-hold", cfg.WalletHandler.CancelHold)
		})

		// Escrows
		r.Route("/escrows", func(r chi.Router) {
			r.Post("/", cfg.EscrowHandler.Create)
			r.Get("/{id}", cfg.EscrowHandler.Get)
			r.Post("/{id}/settle", cfg.EscrowHandler.Settle)
			r.Post("/{id}/cancel", cfg.EscrowHandler.Cancel)
			r.Post("/{id}/dispute", cfg.EscrowHandler.Dispute)
			r.Post("/{id}/reinstate", cfg.EscrowHandler.Reinstate)
		})

		// Reconciliation
		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/wallets", cfg.ReconciliationHandler.CheckAll)
			r.Get("/wallets/{id}", cfg.ReconciliationHandler.CheckWallet)
		})
	})

	return r
}
