// Package recovery implements automated failure recovery for CI/CD alerts:
// an orchestrator that routes incoming alerts through an ordered chain of
// pluggable recovery strategies, stopping at the first one that succeeds.
package recovery

import (
	"context"
	"log/slog"

	"github.com/mendhq/mender/internal/core/domain"
)

// Handler attempts to remediate a failure described by an alert.
//
// Handlers never let errors escape this boundary: failure is communicated
// through the boolean result and fields accumulated on the attempt, so the
// orchestrator can always move on to the next strategy.
type Handler interface {
	// Name identifies the strategy in logs and attempt records.
	Name() string

	// AttemptRecovery tries to remediate the alert, mutating attempt in
	// place. It returns true when the alert was recovered.
	AttemptRecovery(ctx context.Context, alert *domain.Alert, attempt *domain.RecoveryAttempt) bool
}

// Notifier receives episodes that no strategy could recover.
type Notifier interface {
	NotifyUnrecovered(ctx context.Context, alert *domain.Alert, attempt *domain.RecoveryAttempt)
}

// AttemptStore persists finished recovery attempts for the operator surface.
type AttemptStore interface {
	RecordAttempt(ctx context.Context, attempt *domain.RecoveryAttempt) error
}

// LogNotifier reports unrecovered episodes to the structured log.
type LogNotifier struct{}

func (LogNotifier) NotifyUnrecovered(ctx context.Context, alert *domain.Alert, attempt *domain.RecoveryAttempt) {
	slog.Warn("alert not recovered by any strategy",
		"alert", attempt.AlertName,
		"workflow", attempt.WorkflowName,
		"last_strategy", attempt.Strategy,
		"error", attempt.ErrorMessage,
	)
}
