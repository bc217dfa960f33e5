package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"empdesk/internal/platform/config"
	"empdesk/internal/platform/metrics"
	"empdesk/internal/transport/http/api"
	adminhandler "empdesk/internal/transport/http/handlers/admin"
	audithandler "empdesk/internal/transport/http/handlers/audit"
	authhandler "empdesk/internal/transport/http/handlers/auth"
	employeehandler "empdesk/internal/transport/http/handlers/employee"
	supporthandler "empdesk/internal/transport/http/handlers/support"
	"empdesk/internal/transport/http/middleware"
)

type Deps struct {
	Services Services
	Metrics  *metrics.Collector
	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	services := deps.Services
	window := time.Minute

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.Logger(deps.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, services.Auth))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, window))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, window))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled && deps.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, deps.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	authhandler.NewHandler(services.Auth, services.Audit, cfg.PublicBaseURL, cfg.CookieSecure).RegisterRoutes(router)
	employeehandler.NewHandler(services.Employees, services.Audit).RegisterRoutes(router)
	supporthandler.NewHandler(services.Support, services.Employees).RegisterRoutes(router)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		adminhandler.NewHandler(services.Auth, services.Employees, services.Support, services.Audit).RegisterRoutes(r)
		if services.Audit != nil {
			audithandler.NewHandler(services.Audit).RegisterRoutes(r)
		}
	})

	return router
}
