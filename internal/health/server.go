// Package health provides the ops HTTP surface: health probes, Prometheus
// metrics, Alertmanager webhook ingest and circuit breaker administration.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mendhq/mender/internal/core/domain"
	"github.com/mendhq/mender/internal/recovery"
	"github.com/mendhq/mender/internal/recovery/circuitbreaker"
)

const recentAttemptsLimit = 20

// AttemptSource provides recent recovery attempts for the detailed view.
type AttemptSource interface {
	RecentAttempts(ctx context.Context, limit int64) ([]*domain.RecoveryAttempt, error)
}

// Server provides HTTP endpoints for ops monitoring and alert ingest.
type Server struct {
	orchestrator *recovery.Orchestrator
	breakers     *circuitbreaker.Registry
	attempts     AttemptSource // nil when history is disabled
	server       *http.Server
}

// NewServer creates a new ops server.
func NewServer(orchestrator *recovery.Orchestrator, breakers *circuitbreaker.Registry, attempts AttemptSource, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		orchestrator: orchestrator,
		breakers:     breakers,
		attempts:     attempts,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/detailed", s.handleDetailed)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/webhook/alerts", s.handleWebhook)
	mux.HandleFunc("/admin/breakers", s.handleBreakers)
	mux.HandleFunc("/admin/breakers/", s.handleBreakerReset)

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	// Degraded when any guarded dependency currently has an open breaker
	status := "healthy"
	for _, state := range s.breakers.States() {
		if state == circuitbreaker.StateOpen {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	breakers := make(map[string]string)
	for service, state := range s.breakers.States() {
		breakers[service] = state.String()
	}

	recent := []*domain.RecoveryAttempt{}
	if s.attempts != nil {
		attempts, err := s.attempts.RecentAttempts(r.Context(), recentAttemptsLimit)
		if err == nil {
			recent = attempts
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"breakers":        breakers,
		"recent_attempts": recent,
	})
}

// handleWebhook ingests an Alertmanager webhook. Recovery runs in the
// background; the sender only needs receipt of the payload.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var hook domain.Webhook
	if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
		http.Error(w, "invalid webhook payload", http.StatusBadRequest)
		return
	}

	go s.orchestrator.ProcessWebhook(context.Background(), &hook)

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleBreakers(w http.ResponseWriter, r *http.Request) {
	states := make(map[string]string)
	for service, state := range s.breakers.States() {
		states[service] = state.String()
	}
	writeJSON(w, http.StatusOK, states)
}

// handleBreakerReset forces a breaker back to CLOSED:
// POST /admin/breakers/{service}/reset
func (s *Server) handleBreakerReset(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/breakers/")
	service, ok := strings.CutSuffix(rest, "/reset")
	if !ok || service == "" || strings.Contains(service, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.breakers.Reset(service)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
