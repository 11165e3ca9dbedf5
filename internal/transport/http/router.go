// Package httptransport assembles the HTTP surface: middleware chain, public
// health and metrics endpoints, and the authenticated API routes. Handlers
// delegate to domain services; no business logic lives here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	notificationhandler "discrescue/internal/notification/handler"
	"discrescue/internal/platform/middleware"
	recoveryhandler "discrescue/internal/recovery/handler"
	"discrescue/pkg/platform/httputil"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps collects everything the router mounts.
type Deps struct {
	Recovery      *recoveryhandler.Handler
	Notifications *notificationhandler.Handler
	Auth          middleware.JWTValidator
	Logger        *slog.Logger

	// Optional backing-dependency checks surfaced by /healthz.
	Checks map[string]HealthChecker
}

// NewRouter wires the middleware chain and all endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth(d.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.RequireAuth(d.Auth, d.Logger))
		d.Recovery.Register(api)
		d.Notifications.Register(api)
	})

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
