package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/folio/folio/internal/middleware"
)

// RouterConfig holds the middleware settings for NewRouter.
type RouterConfig struct {
	Logger      *slog.Logger
	Auth        middleware.AuthConfig
	Security    middleware.SecurityConfig
	CORS        middleware.CORSConfig
	MaxBodySize int64
}

// Handlers groups every handler mounted by NewRouter.
// Metrics may be nil to leave /metrics unmounted.
type Handlers struct {
	Root     *Handler
	Health   *HealthHandler
	Metrics  *MetricsHandler
	Projects *ProjectHandler
	Accounts *AccountHandler
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}

	// Probes and metrics (no auth required)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	if h.Metrics != nil {
		r.Get("/metrics", h.Metrics.Metrics)
	}

	r.Get("/", h.Root.Index)

	requireAuth := middleware.Authenticate(cfg.Auth)
	optionalAuth := middleware.OptionalAuthenticate(cfg.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Accounts.Register)
			r.Post("/login", h.Accounts.Login)
			r.With(requireAuth).Get("/me", h.Accounts.Me)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.Projects.List)
			r.With(requireAuth).Get("/mine", h.Projects.ListMine)
			r.With(requireAuth).Get("/deleted", h.Projects.ListDeleted)
			// Request shape is checked before authentication.
			r.With(h.Projects.ValidBody, requireAuth).Post("/", h.Projects.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.ValidProjectID)

				r.With(optionalAuth).Get("/", h.Projects.Get)
				r.With(h.Projects.ValidBody, requireAuth).Put("/", h.Projects.Update)

				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Delete("/", h.Projects.SoftDelete)
					r.Patch("/restore", h.Projects.Restore)
					r.Delete("/permanent", h.Projects.HardDelete)
					r.Get("/history", h.Projects.History)
				})
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.Root.NotFound)
	r.MethodNotAllowed(h.Root.MethodNotAllowed)

	return r
}
