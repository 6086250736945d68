package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tributolabs/fiscalis/internal/types"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(h.metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)
		r.Post("/auth/login", h.Login)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(Authenticator(h.tokens))

			r.Get("/auth/me", h.Me)
			r.Get("/states", h.States)
			r.Get("/states/{uf}", h.StateByUF)
			r.Get("/insights/risk-ranking", h.RiskRanking)
			r.Post("/scenarios/simulate", h.Simulate)
			r.Get("/queries", h.ListQueries)
			r.Delete("/queries/{id}", h.DeleteQuery)

			// AI analysis is off-limits to viewers
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(types.RoleAdmin, types.RoleAnalyst))
				r.Post("/analysis/state", h.AnalyzeState)
				r.Post("/analysis/municipal", h.AnalyzeMunicipality)
				r.Post("/analysis/compare", h.Compare)
				r.Post("/analysis/chat", h.Chat)
			})

			r.With(RequireRole(types.RoleAdmin)).Get("/metrics", h.MetricsEndpoint)
		})
	})

	return r
}
