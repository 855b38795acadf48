package recovery

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mendhq/mender/internal/core/domain"
	"github.com/mendhq/mender/internal/metrics"
)

// Orchestrator routes alerts through an ordered chain of recovery handlers.
// Handler order is fixed at construction; handlers are long-lived and shared
// across episodes, while each episode gets its own RecoveryAttempt.
type Orchestrator struct {
	handlers []Handler
	notifier Notifier
	store    AttemptStore
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier overrides the default log-based notifier.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithAttemptStore records every finished attempt to the given store.
func WithAttemptStore(s AttemptStore) Option {
	return func(o *Orchestrator) { o.store = s }
}

// NewOrchestrator builds an orchestrator that tries handlers in the given
// order.
func NewOrchestrator(handlers []Handler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		handlers: handlers,
		notifier: LogNotifier{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessWebhook handles an Alertmanager webhook, running recovery for each
// firing alert in turn. Non-firing alerts are skipped.
func (o *Orchestrator) ProcessWebhook(ctx context.Context, hook *domain.Webhook) {
	if len(hook.Alerts) == 0 {
		slog.Warn("received empty alert webhook", "receiver", hook.Receiver)
		return
	}

	for i := range hook.Alerts {
		alert := &hook.Alerts[i]
		if !alert.Firing() {
			slog.Debug("skipping non-firing alert", "alert", alert.Name(), "status", alert.Status)
			continue
		}
		o.ProcessAlert(ctx, alert)
	}
}

// ProcessAlert runs the handler chain for one alert and returns the
// accumulated attempt record. Every handler receives the same alert/attempt
// pair; the chain stops at the first handler reporting success. When none
// succeed, the attempt is handed to the notifier with its last error message.
func (o *Orchestrator) ProcessAlert(ctx context.Context, alert *domain.Alert) *domain.RecoveryAttempt {
	attempt := domain.NewRecoveryAttempt(alert)

	slog.Info("processing alert",
		"alert", attempt.AlertName,
		"workflow", attempt.WorkflowName,
		"severity", attempt.Severity,
	)
	metrics.RecoveryAttempts.Inc()

	if len(o.handlers) == 0 {
		slog.Warn("no recovery handlers configured", "alert", attempt.AlertName)
		attempt.Status = domain.RecoverySkipped
		attempt.CompletedAt = time.Now()
		o.record(ctx, attempt)
		return attempt
	}

	timer := prometheus.NewTimer(metrics.RecoveryDuration)
	defer timer.ObserveDuration()

	attempt.Status = domain.RecoveryInProgress
	for _, h := range o.handlers {
		attempt.Strategy = h.Name()
		if h.AttemptRecovery(ctx, alert, attempt) {
			attempt.Status = domain.RecoverySucceeded
			attempt.CompletedAt = time.Now()
			metrics.RecoverySuccess.Inc()
			slog.Info("recovery succeeded",
				"alert", attempt.AlertName,
				"strategy", h.Name(),
				"duration_ms", attempt.Duration().Milliseconds(),
			)
			o.record(ctx, attempt)
			return attempt
		}
	}

	attempt.Status = domain.RecoveryFailed
	attempt.CompletedAt = time.Now()
	metrics.RecoveryFailure.Inc()
	slog.Warn("recovery failed",
		"alert", attempt.AlertName,
		"error", attempt.ErrorMessage,
	)
	o.notifier.NotifyUnrecovered(ctx, alert, attempt)
	o.record(ctx, attempt)
	return attempt
}

func (o *Orchestrator) record(ctx context.Context, attempt *domain.RecoveryAttempt) {
	if o.store == nil {
		return
	}
	if err := o.store.RecordAttempt(ctx, attempt); err != nil {
		slog.Warn("failed to record recovery attempt", "attempt", attempt.ID, "error", err)
	}
}
