// Package api serves the SmartBudget HTTP API over the analytical database.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartbudget/pkg/db"
	"smartbudget/pkg/metrics"
)

// NewRouter assembles the HTTP API router over an open database connection.
func NewRouter(conn *db.Connection) http.Handler {
	expensesHandler := NewExpensesHandler(conn)
	recommendationsHandler := NewRecommendationsHandler(conn)

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metricsMiddleware)

	// Service status endpoint.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"service": "smartbudget",
		})
	})

	// Expenses endpoints.
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", expensesHandler.List)
		r.Post("/", expensesHandler.Create)
	})

	// Recommendations endpoint.
	r.Get("/recommendations", recommendationsHandler.List)

	// Liveness endpoint.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := conn.GetDB().Ping(); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "Database ping failed")
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus exposition endpoint.
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	return r
}
