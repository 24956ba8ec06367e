package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/academia-artes/course-assistant/internal/middleware"
	"github.com/academia-artes/course-assistant/pkg/logger"
)

// RoutesConfig configures NewRouter.
type RoutesConfig struct {
	JWTSecret         string
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// StaticDir, when set, is served at "/" for the chat widget.
	StaticDir string
}

// Handlers groups the endpoint handlers.
type Handlers struct {
	Ask     *AskHandler
	Contact *ContactHandler
	Admin   *AdminHandler
	Health  *HealthHandler
}

// NewRouter mounts every endpoint with the shared middleware stack.
func NewRouter(cfg RoutesConfig, h Handlers, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
			r.Post("/ask", h.Ask.Ask)
			r.Post("/contacto", h.Contact.Submit)
		})

		// Admin endpoints are disabled without a signing secret.
		if cfg.JWTSecret == "" {
			return
		}
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RequireScope(middleware.ScopeRetryLeads))
			r.Use(middleware.SubjectRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
			r.Post("/leads/{channel}/{id}/retry", h.Admin.RetryLead)
		})
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}
