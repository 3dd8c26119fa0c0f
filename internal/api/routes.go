package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://app.attendly.io", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Post("/campaigns", h.CreateCampaign)

			r.Post("/qrcode", h.IssueQRCode)
			r.Post("/qrcode/validate", h.ValidateQRCode)
			r.Post("/pin", h.IssuePIN)
			r.Post("/pin/validate", h.ValidatePIN)
		})

		r.Get("/organizations/{orgID}/metrics", h.GetOrganizationMetrics)

		r.Route("/providers", func(r chi.Router) {
			r.Post("/reload", h.ReloadProviders)
			r.Put("/configs", h.UpsertProviderConfig)
			r.Get("/{channel}", h.ListProviders)
			r.Get("/{channel}/configs", h.ListProviderConfigs)
			r.Post("/{channel}/test", h.TestProviders)
		})
	})

	return r
}
