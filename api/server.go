/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/forecast/*       Forecast, summary, scenarios
  /api/incomes/*        Income sources
  /api/bills/*          Bills (plus paid toggle)
  /api/expenses/*       Expense sources
  /api/balance          Current balance
  /api/adjustments/*    Manual balance adjustments
  /api/datasets/*       Demo datasets, reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/cashflow-engine/forecast"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Forecast routes
		r.Route("/forecast", func(r chi.Router) {
			r.Get("/", h.GetForecast)
			r.Get("/summary", h.GetForecastSummary)
			r.Post("/scenario", h.RunScenario)
		})

		// Source routes (one group per kind)
		sourceRoutes := func(kind forecast.SourceKind) func(chi.Router) {
			return func(r chi.Router) {
				r.Get("/", h.ListSourcesOf(kind))
				r.Post("/", h.SaveSourceOf(kind))
				r.Get("/{id}", h.GetSource)
				r.Delete("/{id}", h.DeleteSource)
			}
		}
		r.Route("/incomes", sourceRoutes(forecast.SourceIncome))
		r.Route("/expenses", sourceRoutes(forecast.SourceExpense))
		r.Route("/bills", func(r chi.Router) {
			sourceRoutes(forecast.SourceBill)(r)
			r.Post("/{id}/paid", h.MarkBillPaid)
		})

		// Balance routes
		r.Get("/balance", h.GetBalance)
		r.Put("/balance", h.SetBalance)

		// Adjustment routes
		r.Route("/adjustments", func(r chi.Router) {
			r.Get("/", h.ListAdjustments)
			r.Post("/", h.SaveAdjustment)
			r.Delete("/{id}", h.DeleteAdjustment)
		})

		// Dataset routes
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", h.ListDatasets)
			r.Get("/current", h.GetCurrentDataset)
			r.Post("/load", h.LoadDataset)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
