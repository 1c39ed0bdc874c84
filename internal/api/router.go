package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/podushkina/taskflow/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func routeName(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func NewRouter(h *Handler, ch *CacheHandler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.HTTPMetricsMiddleware(routeName))
	r.Use(observability.AccessLogMiddleware(logger, routeName))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Get("/paginated", h.ListTasksPaginated)
		r.Get("/search", h.SearchTasks)
		r.Get("/exists", h.TaskExists)
		r.Get("/stats", h.TaskStats)
		r.Get("/status/{status}", h.ListTasksByStatus)
		r.Delete("/status/{status}", h.DeleteTasksByStatus)
		r.Get("/priority/{priority}", h.ListTasksByPriority)
		r.Get("/{id}", h.GetTask)
		r.Put("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
	})

	r.Route("/api/cache", func(r chi.Router) {
		r.Get("/stats", ch.Stats)
		r.Delete("/clear", ch.Clear)
	})

	return r
}
