// Package api wires the HTTP surface: routing, request decoding and
// validation, and the mapping from service errors to response statuses.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/citypulse/transit-feedback/internal/middleware"
)

// RouterConfig holds the router-level knobs taken from the server config.
type RouterConfig struct {
	MaxBodyBytes      int64
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter assembles the full middleware chain and route table.
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if cfg.RateLimitRequests > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	}

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Get("/version", h.Version)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/feedback", h.SubmitFeedback)
		r.Get("/feedback", h.ListFeedback)
		r.Put("/feedback/{id}/status", h.UpdateStatus)
		r.Get("/ticket/{id}", h.GetTicket)
		r.Get("/stats", h.GetStats)
		r.Get("/hotspots", h.GetHotspots)
		r.Get("/analytics/routes", h.GetRouteAnalytics)
		r.Get("/export/csv", h.ExportCSV)
		r.Get("/files/stats", h.GetFileStats)
	})

	return r
}
