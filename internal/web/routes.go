package web

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/names-to-faces/internal/constants"
	"github.com/kozaktomas/names-to-faces/internal/metrics"
	"github.com/kozaktomas/names-to-faces/internal/web/handlers"
	"github.com/kozaktomas/names-to-faces/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	lifecycleHandler := handlers.NewLifecycleHandler(s.app, s.runner, s.sessionManager, s.logger)
	peopleHandler := handlers.NewPeopleHandler(s.app, s.runner, s.logger)

	// Health check and metrics (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		// The gate may wait on a biometric verifier, so foreground gets a longer budget.
		r.With(chiMiddleware.Timeout(constants.ForegroundTimeout)).Post("/lifecycle/foreground", lifecycleHandler.Foreground)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(constants.RequestTimeout))
			r.Post("/lifecycle/background", lifecycleHandler.Background)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(s.sessionManager))

				r.Get("/people", peopleHandler.List)
				r.Post("/people", peopleHandler.Create)
				r.Put("/people/{index}", peopleHandler.Rename)
				r.Delete("/people/{index}", peopleHandler.Delete)
				r.Get("/people/{index}/image", peopleHandler.Image)
			})
		})
	})
}
