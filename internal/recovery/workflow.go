package recovery

import (
	"context"
	"log/slog"

	"github.com/mendhq/mender/internal/core/domain"
	"github.com/mendhq/mender/internal/infra/github"
	"github.com/mendhq/mender/internal/recovery/circuitbreaker"
)

// GitHubService is the breaker name guarding GitHub API calls.
const GitHubService = "github-api"

// WorkflowRetryHandler recovers pipeline failures by finding the most recent
// failed GitHub Actions run and re-running its failed jobs.
type WorkflowRetryHandler struct {
	client   *github.Client
	breakers *circuitbreaker.Registry
}

// NewWorkflowRetryHandler creates the handler. All API calls go through the
// registry's "github-api" breaker.
func NewWorkflowRetryHandler(client *github.Client, breakers *circuitbreaker.Registry) *WorkflowRetryHandler {
	return &WorkflowRetryHandler{client: client, breakers: breakers}
}

func (h *WorkflowRetryHandler) Name() string {
	return "workflow-retry"
}

// AttemptRecovery looks up the last failed run and triggers a rerun of its
// failed jobs. It returns false without any network I/O when the alert names
// no workflow or no API token is configured.
func (h *WorkflowRetryHandler) AttemptRecovery(ctx context.Context, alert *domain.Alert, attempt *domain.RecoveryAttempt) bool {
	workflow := alert.WorkflowName()
	if workflow == "" {
		slog.Warn("cannot retry workflow: no workflow name in alert", "alert", alert.Name())
		return false
	}
	if !h.client.Enabled() {
		slog.Warn("github token not configured, skipping workflow retry", "workflow", workflow)
		return false
	}

	var runID string
	err := h.breakers.Execute(GitHubService, func() error {
		var lookupErr error
		runID, lookupErr = h.client.LastFailedRun(ctx)
		return lookupErr
	})
	if err != nil {
		slog.Error("failed to look up failed workflow runs", "workflow", workflow, "error", err)
		attempt.ErrorMessage = "GitHub API error: " + err.Error()
		return false
	}
	if runID == "" {
		slog.Warn("no failed workflow run found", "workflow", workflow)
		return false
	}

	attempt.GitHubRunID = runID

	err = h.breakers.Execute(GitHubService, func() error {
		return h.client.RerunFailedJobs(ctx, runID)
	})
	if err != nil {
		slog.Error("failed to trigger workflow rerun",
			"workflow", workflow, "run_id", runID, "error", err)
		attempt.ErrorMessage = "GitHub API error: " + err.Error()
		return false
	}

	attempt.RetryCount++
	slog.Info("triggered retry for failed workflow", "workflow", workflow, "run_id", runID)
	return true
}
