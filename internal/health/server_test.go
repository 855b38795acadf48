package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mendhq/mender/internal/core/domain"
	"github.com/mendhq/mender/internal/recovery"
	"github.com/mendhq/mender/internal/recovery/circuitbreaker"
)

type signalHandler struct {
	called chan string
}

func (h *signalHandler) Name() string { return "signal" }

func (h *signalHandler) AttemptRecovery(ctx context.Context, alert *domain.Alert, attempt *domain.RecoveryAttempt) bool {
	h.called <- alert.Name()
	return true
}

func newTestServer(t *testing.T, handler recovery.Handler, registry *circuitbreaker.Registry) *httptest.Server {
	t.Helper()
	var handlers []recovery.Handler
	if handler != nil {
		handlers = append(handlers, handler)
	}
	s := NewServer(recovery.NewOrchestrator(handlers), registry, nil, 0)
	srv := httptest.NewServer(s.server.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_Health(t *testing.T) {
	registry := circuitbreaker.NewRegistry(circuitbreaker.Config{}, nil)
	srv := newTestServer(t, nil, registry)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServer_HealthDegradedWhenBreakerOpen(t *testing.T) {
	registry := circuitbreaker.NewRegistry(circuitbreaker.Config{FailureThreshold: 1}, nil)
	registry.Execute("github-api", func() error { return errors.New("down") })

	srv := newTestServer(t, nil, registry)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "degraded") {
		t.Errorf("body = %s, want degraded status", buf[:n])
	}
}

func TestServer_WebhookAccepted(t *testing.T) {
	h := &signalHandler{called: make(chan string, 1)}
	srv := newTestServer(t, h, circuitbreaker.NewRegistry(circuitbreaker.Config{}, nil))

	payload := `{"status":"firing","alerts":[{"status":"firing","labels":{"alertname":"PipelineFailure","workflow":"ci"}}]}`
	resp, err := http.Post(srv.URL+"/webhook/alerts", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /webhook/alerts: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	select {
	case name := <-h.called:
		if name != "PipelineFailure" {
			t.Errorf("handler received alert %q, want PipelineFailure", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never reached the orchestrator")
	}
}

func TestServer_WebhookBadPayload(t *testing.T) {
	srv := newTestServer(t, nil, circuitbreaker.NewRegistry(circuitbreaker.Config{}, nil))

	resp, err := http.Post(srv.URL+"/webhook/alerts", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST /webhook/alerts: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_WebhookMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil, circuitbreaker.NewRegistry(circuitbreaker.Config{}, nil))

	resp, err := http.Get(srv.URL + "/webhook/alerts")
	if err != nil {
		t.Fatalf("GET /webhook/alerts: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestServer_BreakerReset(t *testing.T) {
	registry := circuitbreaker.NewRegistry(circuitbreaker.Config{FailureThreshold: 1}, nil)
	registry.Execute("github-api", func() error { return errors.New("down") })
	if registry.State("github-api") != circuitbreaker.StateOpen {
		t.Fatal("breaker not open after failure")
	}

	srv := newTestServer(t, nil, registry)

	resp, err := http.Post(srv.URL+"/admin/breakers/github-api/reset", "application/json", nil)
	if err != nil {
		t.Fatalf("POST reset: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if got := registry.State("github-api"); got != circuitbreaker.StateClosed {
		t.Fatalf("breaker state after reset = %v, want CLOSED", got)
	}
}
