package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (auth required when a key is configured)
		r.Group(func(r chi.Router) {
			if h.apiKey != "" {
				r.Use(AuthMiddleware(h.apiKey))
			}

			r.Get("/modules", h.ListModules)
			r.Post("/modules/refresh", h.RefreshModules)

			r.Route("/modules/{module}", func(r chi.Router) {
				r.Use(ModuleMiddleware(h.modules))
				r.Get("/", h.GetModule)
				r.Post("/chat", h.Chat)
				r.Get("/stats", h.Stats)
				r.Get("/history", h.History)
			})

			r.Post("/builder", h.BuildModule)
			r.Post("/builder/preview", h.PreviewModule)
		})
	})

	return r
}
