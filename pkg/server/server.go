package server

import (
	"net/http"
	"time"

	"obra-control-backend/pkg/authz"
	"obra-control-backend/pkg/config"
	"obra-control-backend/pkg/database"
	"obra-control-backend/pkg/handlers"
	customMiddleware "obra-control-backend/pkg/middleware"
	"obra-control-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const serviceName = "obra-control-backend"

// New assembles the router: global middleware chain plus the full route
// table against the given store.
func New(cfg *config.Config, store database.Store) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg)
	setupRoutes(router, cfg, store)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(customMiddleware.RequestLogger())
	router.Use(customMiddleware.Recovery())
	router.Use(customMiddleware.Metrics(serviceName))

	router.Use(customMiddleware.CORS(cfg))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.Compress(5))
	router.Use(customMiddleware.ContentTypeJSON)
	router.Use(customMiddleware.MaxBodySize(10 << 20)) // 10MB

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

func setupRoutes(router *chi.Mux, cfg *config.Config, store database.Store) {
	jwtService := utils.NewJWTService(cfg.JWTSecret)

	authHandler := handlers.NewAuthHandler(store, jwtService)
	projectsHandler := handlers.NewProjectsHandler(store)
	trackingHandler := handlers.NewTrackingHandler(store)

	authGate := customMiddleware.Auth(jwtService, store)

	router.Get("/api/health", handlers.HealthCheck)
	router.Handle("/metrics", customMiddleware.PrometheusHandler())

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authGate)
			r.Get("/profile", authHandler.Profile)
			r.Get("/verify", authHandler.Verify)
		})
	})

	router.Route("/api/projects", func(r chi.Router) {
		r.Use(authGate)

		r.Get("/", projectsHandler.List)
		r.Get("/stats/dashboard", projectsHandler.Stats)
		r.With(customMiddleware.RequireAction(authz.ActionCreateProject)).
			Post("/", projectsHandler.Create)

		r.Get("/{id}", projectsHandler.Get)
		// Edit rights come from ownership, checked in the handler.
		r.Put("/{id}", projectsHandler.Update)
		r.With(customMiddleware.RequireAction(authz.ActionDeleteProject)).
			Delete("/{id}", projectsHandler.Delete)
		r.With(customMiddleware.RequireAction(authz.ActionAssignUsers)).
			Post("/{id}/usuarios", projectsHandler.AssignUser)
		r.With(customMiddleware.RequireAction(authz.ActionMergeData)).
			Patch("/{id}/datos-adicionales", projectsHandler.MergeDatos)
	})

	router.Route("/api/seguimiento", func(r chi.Router) {
		r.Use(authGate)
		r.Get("/test", trackingHandler.Test)
		r.Get("/{projectId}/dashboard", trackingHandler.Dashboard)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusNotFound, "Ruta no encontrada")
	})
}
