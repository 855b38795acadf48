package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecoveryStatus tracks the lifecycle of a recovery attempt.
type RecoveryStatus string

const (
	RecoveryInitiated  RecoveryStatus = "initiated"
	RecoveryInProgress RecoveryStatus = "in_progress"
	RecoverySucceeded  RecoveryStatus = "succeeded"
	RecoveryFailed     RecoveryStatus = "failed"
	RecoverySkipped    RecoveryStatus = "skipped"
)

// RecoveryAttempt records what was tried for one alert and what happened.
// A single attempt is shared by every handler that runs for the episode, so
// results accumulate on one record.
type RecoveryAttempt struct {
	ID           string         `json:"id"`
	AlertName    string         `json:"alert_name"`
	Severity     string         `json:"severity"`
	WorkflowName string         `json:"workflow_name"`
	Strategy     string         `json:"strategy"`
	Status       RecoveryStatus `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	RetryCount   int            `json:"retry_count"`
	GitHubRunID  string         `json:"github_run_id,omitempty"`
}

// NewRecoveryAttempt builds a fresh attempt record for one alert episode.
func NewRecoveryAttempt(alert *Alert) *RecoveryAttempt {
	return &RecoveryAttempt{
		ID:           uuid.New().String(),
		AlertName:    alert.Name(),
		Severity:     alert.Severity(),
		WorkflowName: alert.WorkflowName(),
		Status:       RecoveryInitiated,
		StartedAt:    time.Now(),
	}
}

// Duration returns how long the attempt took, zero while still running.
func (a *RecoveryAttempt) Duration() time.Duration {
	if a.StartedAt.IsZero() || a.CompletedAt.IsZero() {
		return 0
	}
	return a.CompletedAt.Sub(a.StartedAt)
}

// Successful reports whether the attempt recovered the alert.
func (a *RecoveryAttempt) Successful() bool {
	return a.Status == RecoverySucceeded
}
