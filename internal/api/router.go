/**
 * @description
 * This file sets up the HTTP router. It defines the API endpoints, associates them
 * with their handlers, and applies middleware for logging, panic recovery, request
 * timeouts, and transfer rate limiting.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fabriciomarote/capacitacion/internal/app"
)

// Routes creates and returns the service router. metricsHandler may be nil, in
// which case no /metrics route is mounted.
func Routes(h *Handlers, limiter *app.RedisRateLimiter, transferRatePerMinute int, metricsHandler http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/accounts", func(r chi.Router) {
		r.Get("/", h.ListAccountsHandler)
		r.Post("/", h.CreateAccountHandler)
		r.Delete("/", h.DeleteAllAccountsHandler)
		r.Get("/by-national-id/{nationalID}", h.GetAccountByNationalIDHandler)
		r.Get("/{id}", h.GetAccountHandler)
		r.Put("/{id}", h.UpdateAccountHandler)
		r.Delete("/{id}", h.DeleteAccountHandler)
	})

	r.Route("/api/transactions", func(r chi.Router) {
		r.Get("/", h.ListTransactionsHandler)
		r.Get("/{id}", h.GetTransactionHandler)
		r.Delete("/", h.DeleteAllTransactionsHandler)
		r.With(TransferRateLimitMiddleware(limiter, transferRatePerMinute, logger)).
			Post("/", h.TransferHandler)
	})

	return r
}
