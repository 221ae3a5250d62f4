// Package http assembles the routes and the server of the sign-in service.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httperrors "github.com/dropDatabas3/githubauth/internal/http/errors"
	"github.com/dropDatabas3/githubauth/internal/http/handlers"
	mw "github.com/dropDatabas3/githubauth/internal/http/middlewares"
	"github.com/dropDatabas3/githubauth/internal/rate"
)

// NewRouter wires the sign-in, health and metrics routes. metricsHandler may be nil to use the
// default Prometheus gatherer; a nil limiter leaves the sign-in routes unlimited.
func NewRouter(gh *handlers.GitHub, metricsHandler http.Handler, limiter rate.Limiter) http.Handler {
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(mw.WithRequestID(), mw.WithLogging(), mw.WithRecover())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Get("/healthz", handlers.Health)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore(), mw.WithRateLimit(limiter))
		r.Get(handlers.LoginPath, gh.Login)
		r.Get(handlers.CallbackPath, gh.Callback)
	})

	return r
}
