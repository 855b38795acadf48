package recovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mendhq/mender/internal/core/domain"
	"github.com/mendhq/mender/internal/infra/github"
	"github.com/mendhq/mender/internal/recovery/circuitbreaker"
)

func newWorkflowHandler(t *testing.T, handler http.Handler) (*WorkflowRetryHandler, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := github.NewClient(github.Config{
		Token:      "test-token",
		Repository: "acme/pipeline",
		APIURL:     srv.URL,
	})
	return NewWorkflowRetryHandler(client, circuitbreaker.NewRegistry(circuitbreaker.Config{}, nil)), srv
}

func TestWorkflowRetryHandler_EmptyWorkflowName(t *testing.T) {
	var requests atomic.Int64
	h, _ := newWorkflowHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))

	alert := firingAlert(map[string]string{"alertname": "PipelineFailure"}, nil)
	if ok := h.AttemptRecovery(context.Background(), alert, domain.NewRecoveryAttempt(alert)); ok {
		t.Fatal("AttemptRecovery = true without a workflow name")
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("made %d HTTP calls without a workflow name, want 0", n)
	}
}

func TestWorkflowRetryHandler_NoToken(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	client := github.NewClient(github.Config{Repository: "acme/pipeline", APIURL: srv.URL})
	h := NewWorkflowRetryHandler(client, circuitbreaker.NewRegistry(circuitbreaker.Config{}, nil))

	alert := firingAlert(map[string]string{"alertname": "PipelineFailure", "workflow": "ci"}, nil)
	if ok := h.AttemptRecovery(context.Background(), alert, domain.NewRecoveryAttempt(alert)); ok {
		t.Fatal("AttemptRecovery = true without a token")
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("made %d HTTP calls without a token, want 0", n)
	}
}

func TestWorkflowRetryHandler_Success(t *testing.T) {
	h, _ := newWorkflowHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(`{"workflow_runs":[{"id":42}]}`))
		case strings.HasSuffix(r.URL.Path, "/rerun-failed-jobs"):
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	alert := firingAlert(map[string]string{"alertname": "PipelineFailure", "workflow": "ci"}, nil)
	attempt := domain.NewRecoveryAttempt(alert)

	if ok := h.AttemptRecovery(context.Background(), alert, attempt); !ok {
		t.Fatal("AttemptRecovery = false, want true")
	}
	if attempt.GitHubRunID != "42" {
		t.Errorf("GitHubRunID = %q, want %q", attempt.GitHubRunID, "42")
	}
	if attempt.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", attempt.RetryCount)
	}
	if attempt.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", attempt.ErrorMessage)
	}
}

func TestWorkflowRetryHandler_NoFailedRun(t *testing.T) {
	var requests atomic.Int64
	h, _ := newWorkflowHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"workflow_runs":[]}`))
	}))

	alert := firingAlert(map[string]string{"alertname": "PipelineFailure", "workflow": "ci"}, nil)
	attempt := domain.NewRecoveryAttempt(alert)

	if ok := h.AttemptRecovery(context.Background(), alert, attempt); ok {
		t.Fatal("AttemptRecovery = true with no failed run")
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("made %d HTTP calls, want 1 (lookup only)", n)
	}
	if attempt.GitHubRunID != "" {
		t.Errorf("GitHubRunID = %q, want empty", attempt.GitHubRunID)
	}
}

func TestWorkflowRetryHandler_RerunRejected(t *testing.T) {
	h, _ := newWorkflowHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"workflow_runs":[{"id":42}]}`))
			return
		}
		http.Error(w, "run not rerunnable", http.StatusForbidden)
	}))

	alert := firingAlert(map[string]string{"alertname": "PipelineFailure", "workflow": "ci"}, nil)
	attempt := domain.NewRecoveryAttempt(alert)

	if ok := h.AttemptRecovery(context.Background(), alert, attempt); ok {
		t.Fatal("AttemptRecovery = true on rejected rerun")
	}
	if attempt.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", attempt.RetryCount)
	}
	if !strings.Contains(attempt.ErrorMessage, "GitHub API error") {
		t.Errorf("ErrorMessage = %q, want GitHub API error", attempt.ErrorMessage)
	}
	if attempt.GitHubRunID != "42" {
		t.Errorf("GitHubRunID = %q, want recorded before the rerun", attempt.GitHubRunID)
	}
}

// Once the breaker for github-api opens, further attempts are rejected
// before reaching the network.
func TestWorkflowRetryHandler_BreakerGuardsAPI(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := github.NewClient(github.Config{Token: "t", Repository: "acme/pipeline", APIURL: srv.URL})
	registry := circuitbreaker.NewRegistry(circuitbreaker.Config{FailureThreshold: 1}, nil)
	h := NewWorkflowRetryHandler(client, registry)

	alert := firingAlert(map[string]string{"alertname": "PipelineFailure", "workflow": "ci"}, nil)

	h.AttemptRecovery(context.Background(), alert, domain.NewRecoveryAttempt(alert))
	if got := registry.State(GitHubService); got != circuitbreaker.StateOpen {
		t.Fatalf("breaker state = %v, want %v", got, circuitbreaker.StateOpen)
	}
	before := requests.Load()

	attempt := domain.NewRecoveryAttempt(alert)
	if ok := h.AttemptRecovery(context.Background(), alert, attempt); ok {
		t.Fatal("AttemptRecovery = true while breaker open")
	}
	if n := requests.Load(); n != before {
		t.Errorf("breaker let %d calls through while open", n-before)
	}
	if !strings.Contains(attempt.ErrorMessage, "circuit breaker is open") {
		t.Errorf("ErrorMessage = %q, want circuit breaker rejection", attempt.ErrorMessage)
	}
}
