package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forgo/campusfeed/internal/middleware"
)

// RouterConfig carries everything the router mounts
type RouterConfig struct {
	Auth    *AuthHandler
	Profile *ProfileHandler
	Posts   *PostHandler
	Admin   *AdminUsersHandler
	Chat    *ChatHandler
	Health  *HealthHandler

	Sessions middleware.SessionManager
	Accounts middleware.AccountLookup

	AllowedOrigins []string
	AuthLimiter    *middleware.RateLimiter      // register and login
	Idempotency    *middleware.IdempotencyStore // post creation

	// Uploads serves stored images when the disk blob store is used
	Uploads http.Handler
}

// NewRouter builds the API router
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logger,
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Compress,
		middleware.Session(cfg.Sessions, cfg.Accounts),
	)

	r.Get("/health", cfg.Health.Health)
	r.Get("/v1/chat", cfg.Chat.Serve)
	r.Get("/logout", cfg.Auth.LogoutRedirect)

	if cfg.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", cfg.Uploads))
	}

	r.Route("/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.AuthLimiter)).Post("/register", cfg.Auth.Register)
		r.With(middleware.RateLimit(cfg.AuthLimiter)).Post("/login", cfg.Auth.Login)
		r.Post("/logout", cfg.Auth.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)

		r.Get("/v1/profile", cfg.Profile.Get)
		r.Patch("/v1/profile", cfg.Profile.Update)

		r.Get("/v1/posts", cfg.Posts.List)
		r.With(middleware.Idempotency(cfg.Idempotency)).Post("/v1/posts", cfg.Posts.Create)
		r.Delete("/v1/posts/{id}", cfg.Posts.Delete)
	})

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/users", cfg.Admin.ListUsers)
		r.Post("/users/{id}/role", cfg.Admin.Promote)
	})

	return r
}
