package handlers

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dotstatus/app/internal/cache"
	"dotstatus/app/internal/config"
	"dotstatus/app/internal/metrics"
	"dotstatus/app/internal/poller"
	"dotstatus/app/internal/ratelimit"
)

// Server bundles the collaborators the HTTP layer needs.
type Server struct {
	Cfg    *config.Config
	Agg    *metrics.Aggregator
	Poller *poller.Poller
	Cache  *cache.Cache
}

// NewRouter builds the full route tree: public read models, Prometheus
// metrics, and the owner-authenticated admin API.
func NewRouter(cfg *config.Config, agg *metrics.Aggregator, p *poller.Poller) http.Handler {
	s := &Server{
		Cfg:    cfg,
		Agg:    agg,
		Poller: p,
		Cache:  cache.New(30 * time.Second),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public read side. No mutation is reachable from here.
	r.Group(func(r chi.Router) {
		r.Use(limitBy(ratelimit.New(120)))
		r.Get("/api/targets", s.handleTargetCards)
		r.Get("/api/target/{id}/latency", s.handleLatency)
		r.Get("/api/events", s.handleEvents)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Owner admin API.
	r.Route("/owner", func(r chi.Router) {
		r.Use(s.ownerAuth)
		r.Get("/targets", s.handleOwnerTargets)
		r.Post("/targets", s.handleTargetCreate)
		r.Post("/targets/{id}/toggle", s.handleTargetToggle)
		r.Post("/targets/{id}/toggle_click", s.handleTargetToggleClick)
		r.Post("/targets/{id}/poll", s.handleTargetPoll)
		r.Delete("/targets/{id}", s.handleTargetDelete)
		r.Get("/snapshots.csv", s.handleSnapshotsCSV)
		r.Get("/update", s.handleUpdateCheck)
		r.Get("/db", s.handleDBInfo)
	})

	return r
}

// limitBy throttles by client IP, which RealIP has already resolved.
func limitBy(l *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !l.Allow(host) {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
