package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/route-optimizer/app"
	"github.com/upb/route-optimizer/handlers"
	"github.com/upb/route-optimizer/internal/observability"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(deps.Metrics.Middleware)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/", handlers.Root())
	r.Get("/health", handlers.HealthCheck())

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	optimize := handlers.NewOptimizeHandler(deps.Optimizer, deps.Logger)
	r.Route("/api", func(r chi.Router) {
		r.Post("/optimize-routes", optimize.HandleOptimize)
		r.Get("/llm-status", optimize.HandleLLMStatus)
	})

	// 404 handler
	r.NotFound(handlers.NotFound)

	return r
}
