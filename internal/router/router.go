package router

import (
	"net/http"

	"facet-inventory-api/internal/handler"
	"facet-inventory-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	StockHandler   *handler.StockHandler
	StreamHandler  *handler.StreamHandler
	AdminHandler   *handler.AdminHandler
	AuthHandler    *handler.AuthHandler
	AuthMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes (use Group to apply auth middleware only to these)
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Auth endpoints
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/token", cfg.AuthHandler.GenerateToken)
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
					r.Post("/refresh", cfg.AuthHandler.RefreshToken)
				})
			}

			// Stock, reservation and alert endpoints
			if cfg.StockHandler != nil {
				r.Route("/stock", func(r chi.Router) {
					r.Get("/", cfg.StockHandler.GetStock)
					r.Post("/sync", cfg.StockHandler.SyncStock)
					r.Route("/{product_id}", func(r chi.Router) {
						r.Get("/", cfg.StockHandler.GetProductStock)
						r.Post("/sync", cfg.StockHandler.SyncProductStock)
					})
				})

				r.Route("/reservations", func(r chi.Router) {
					r.Post("/", cfg.StockHandler.Reserve)
					r.Delete("/{reservation_id}", cfg.StockHandler.Release)
				})

				r.Route("/alerts", func(r chi.Router) {
					r.Get("/", cfg.StockHandler.GetAlerts)
					r.Post("/{alert_id}/dismiss", cfg.StockHandler.DismissAlert)
				})
			}

			// Live event stream
			if cfg.StreamHandler != nil {
				r.Get("/stream", cfg.StreamHandler.Stream)
			}

			// Admin endpoints
			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Get("/health", cfg.AdminHandler.GetHealth)
					r.Get("/events", cfg.AdminHandler.GetEvents)
				})
			}
		})
	})

	return r
}
