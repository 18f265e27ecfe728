package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, hc *HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - the SPA calls this API from its own origin during development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://iluma.agency", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Report-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (no auth required)
	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		r.Route("/personalization", func(r chi.Router) {
			r.Post("/sessions", h.HandleCreateSession)
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", h.HandleGetSession)
				r.Delete("/", h.HandleResetSession)
				r.Post("/interactions", h.HandleReportInteraction)
				r.Post("/alternative/{index}", h.HandleSwitchAlternative)
				r.Get("/score", h.HandleGetScore)
				r.Get("/report", h.HandleGetReport)
			})
			r.Get("/insights", h.HandleRecentInsights)
		})

		// System routes
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", h.HandleSystemStatus)
		})
	})

	return r
}
