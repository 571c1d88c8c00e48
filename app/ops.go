package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether a dependency is usable.
type HealthChecker func(ctx context.Context) error

// NewOpsRouter serves Prometheus metrics from gatherer and a health check
// that runs every checker.
func NewOpsRouter(gatherer prometheus.Gatherer, checks map[string]HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		for name, check := range checks {
			if err := check(req.Context()); err != nil {
				http.Error(w, name+": "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (app *App) opsRouter() http.Handler {
	return NewOpsRouter(app.Registry, map[string]HealthChecker{
		"database": app.DB.PingContext,
		"queue":    app.GradeModule.HealthCheck,
		"eventbus": func(context.Context) error { return app.EventBus.Healthy() },
	})
}
