/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a local frontend

ROUTE GROUPS:
  /api/products/*     Product catalog
  /api/purchases      Purchase postings
  /api/adjustments    Stock adjustments
  /api/sales          Sale postings and history
  /api/taxes          Tax rate configuration
  /api/statements/*   Monthly statements and xlsx export
  /api/backups/*      Backup and restore

SECURITY NOTE:
  Single-user tool, no authentication middleware. Bind to localhost.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
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
		// Product routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/low-stock", h.ListLowStock)
			r.Put("/{code}/price", h.UpdatePrice)
			r.Post("/{code}/archive", h.ArchiveProduct)
		})

		// Posting routes
		r.Post("/purchases", h.PostPurchase)
		r.Post("/adjustments", h.PostAdjustment)
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListRecentSales)
			r.Post("/", h.PostSale)
		})

		// Tax routes
		r.Route("/taxes", func(r chi.Router) {
			r.Get("/", h.GetTaxRates)
			r.Put("/", h.UpdateTaxRates)
		})

		// Statement routes
		r.Route("/statements", func(r chi.Router) {
			r.Get("/{year}/{month}", h.GetMonthlySummary)
			r.Get("/{year}/{month}/export", h.ExportStatements)
		})

		// Backup routes
		r.Route("/backups", func(r chi.Router) {
			r.Post("/", h.CreateBackup)
			r.Post("/restore", h.RestoreBackup)
		})
	})

	return r
}
