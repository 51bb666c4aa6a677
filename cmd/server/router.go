package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/invoice-api/internal/api"
	apiMiddleware "github.com/phrazzld/invoice-api/internal/api/middleware"
)

// setupRouter builds the HTTP router with middleware, the settings API under
// /api, the health check and, when enabled, the metrics endpoint.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(app.metrics.Middleware)

	settingsHandler := api.NewSettingsHandler(app.settingsService, app.logger)
	ownerHandler := api.NewOwnerHandler(app.settingsService, app.logger)

	r.Route("/api", func(r chi.Router) {
		api.RegisterRoutes(r, settingsHandler, ownerHandler)
	})

	r.Get("/health", app.healthCheck)
	if app.metrics != nil {
		r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
	}

	return r
}

// healthCheck reports 200 when the database answers a ping.
func (app *application) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, body := http.StatusOK, "OK"
	if err := app.db.PingContext(ctx); err != nil {
		app.logger.Warn("health check failed", "error", err)
		status, body = http.StatusServiceUnavailable, "database unavailable"
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		app.logger.Error("failed to write health check response", "error", err)
	}
}
