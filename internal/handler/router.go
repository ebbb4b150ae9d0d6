package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/bookshelf/bookshelf/internal/metrics"
	"github.com/bookshelf/bookshelf/internal/middleware"
)

// RouterConfig holds everything the HTTP surface is built from.
type RouterConfig struct {
	Logger  *slog.Logger
	Tokens  middleware.TokenValidator
	Metrics metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	Health  *HealthHandler
	Auth    *AuthHandler
	Account *AccountHandler
	Users   *UserHandler
	Books   *BookHandler

	AllowedOrigins     []string
	IsDevelopment      bool
	MaxRequestBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := New()
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}))

	r.Get("/", h.Info)
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger:  cfg.Logger,
		Tokens:  cfg.Tokens,
		Metrics: cfg.Metrics,
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.Auth.Register)
			r.Post("/login", cfg.Auth.Login)
			r.With(requireAuth).Get("/me", cfg.Auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/account", func(r chi.Router) {
				r.Get("/", cfg.Account.Get)
				r.Delete("/", cfg.Account.Delete)
				r.Put("/profile", cfg.Account.UpdateProfile)
				r.Put("/password", cfg.Account.ChangePassword)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", cfg.Users.List)
				r.Get("/{id}", cfg.Users.Get)
				r.Patch("/{id}", cfg.Users.Update)
				r.Delete("/{id}", cfg.Users.Delete)
			})

			r.Route("/books", func(r chi.Router) {
				r.Get("/", cfg.Books.List)
				r.Post("/", cfg.Books.Create)
				r.Get("/{id}", cfg.Books.Get)
				r.Patch("/{id}", cfg.Books.Update)
				r.Put("/{id}", cfg.Books.Update)
				r.Delete("/{id}", cfg.Books.Delete)
			})
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
