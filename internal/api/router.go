package api

import (
	"net/http"

	"github.com/dom/blog-api/internal/api/handlers"
	"github.com/dom/blog-api/internal/api/middleware"
	"github.com/dom/blog-api/internal/config"
	"github.com/dom/blog-api/internal/service"
	"github.com/dom/blog-api/internal/telemetry"
	"github.com/dom/blog-api/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	userHandler := handlers.NewUserHandler(services.Auth)
	postHandler := handlers.NewPostHandler(services.Post)
	feedHandler := handlers.NewFeedHandler(hub, cfg.CORSOrigins)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/posts", postHandler.List)
		r.Get("/posts/feed", feedHandler.Handle)
		r.Get("/posts/{id}", postHandler.Get)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Post("/logout", authHandler.Logout)
			r.Get("/users/{id}", userHandler.Show)

			r.Post("/posts", postHandler.Create)
			r.Patch("/posts/{id}", postHandler.Update)
			r.Put("/posts/{id}", postHandler.Update)
			r.Delete("/posts/{id}", postHandler.Delete)
		})
	})

	if cfg.OTELEndpoint == "" {
		return r
	}
	return telemetry.WrapHandler(r, cfg.OTELServiceName)
}
