// Package health serves the liveness, readiness and metrics endpoints of the
// worker manager.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"directory-workers/internal/common/database"
)

const readyTimeout = 3 * time.Second

// WorkerLister reports the task types with an open job worker.
type WorkerLister interface {
	Running() []string
}

type Server struct {
	pingers []database.Pinger
	workers WorkerLister
	version string
}

func NewServer(version string, workers WorkerLister, pingers ...database.Pinger) *Server {
	return &Server{pingers: pingers, workers: workers, version: version}
}

// Router mounts /health, /ready and /metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady pings every backing service; any failure answers 503 with the
// failing service names.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failures := database.PingAll(ctx, s.pingers...)

	body := map[string]interface{}{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if s.workers != nil {
		running := s.workers.Running()
		sort.Strings(running)
		body["workers"] = running
	}

	status := http.StatusOK
	if len(failures) > 0 {
		status = http.StatusServiceUnavailable
		body["status"] = "not_ready"
		errs := make(map[string]string, len(failures))
		for name, err := range failures {
			errs[name] = err.Error()
		}
		body["failures"] = errs
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
