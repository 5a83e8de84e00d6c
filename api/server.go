package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samcaspus/tieredstore/engine"
)

// NewRouter builds the HTTP surface described in spec §6 plus the
// domain-stack additions from SPEC_FULL.md §6 (healthz, metrics,
// tiering status). Routing is via github.com/go-chi/chi/v5 (a direct
// dependency of the AKJUS-bsc-erigon repo in the example pack); the
// teacher itself hand-rolls path parsing in ais/target.go, a pattern
// chi generalizes without changing any handler body.
func NewRouter(eng *engine.Engine) http.Handler {
	h := &handler{eng: eng}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.Timeout(60 * time.Second))

	registry := prometheus.NewRegistry()
	registry.MustRegister(newStatsCollector(eng))

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/files", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/{id}", h.read)
		r.Get("/{id}/metadata", h.metadata)
		r.Delete("/{id}", h.delete)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/tiering/run", h.runTiering)
		r.Get("/tiering/status", h.tieringStatus)
		r.Get("/stats", h.stats)
		r.Post("/files/{id}/update-last-accessed", h.updateLastAccessed)
	})

	return r
}
