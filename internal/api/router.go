// Package api serves FEP's admin HTTP surface (spec.md §6 ambient
// addition): health/readiness, Prometheus scrape, a live event-table
// dump, config reload, and a websocket tail of published alerts. Router
// wiring follows the teacher's chi setup in cmd/hlsd/main.go.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/technosupport/fep/internal/admission"
	"github.com/technosupport/fep/internal/health"
	"github.com/technosupport/fep/internal/metrics"
	"github.com/technosupport/fep/internal/middleware"
	"github.com/technosupport/fep/internal/ratelimit"
)

// Dependencies bundles everything the admin router needs.
type Dependencies struct {
	Engine   *admission.Engine
	Health   *health.Service
	Metrics  *metrics.Collector
	Tail     *AlertTail
	Reload   func() error // re-reads config and hot-swaps the rule set
	AdminTokenHash string
	Limiter  *ratelimit.Limiter
	RateLimit ratelimit.LimitConfig
}

// NewRouter builds the chi router for the admin surface.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.CORS)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	if deps.Limiter != nil {
		r.Use(middleware.RateLimit(deps.Limiter, deps.RateLimit))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil && !deps.Health.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(deps.Health.Statuses())
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if deps.AdminTokenHash != "" {
			r.Use(middleware.AdminAuth(deps.AdminTokenHash))
		}

		r.Get("/debug/events", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(deps.Engine.Snapshot())
		})

		r.Post("/debug/reload", func(w http.ResponseWriter, r *http.Request) {
			if deps.Reload == nil {
				w.WriteHeader(http.StatusNotImplemented)
				return
			}
			if err := deps.Reload(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("reloaded"))
		})

		if deps.Tail != nil {
			r.Get("/debug/stream", deps.Tail.ServeWS)
		}
	})

	return r
}
