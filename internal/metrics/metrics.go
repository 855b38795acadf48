package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerStateChanges tracks circuit breaker state transitions per service
	BreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"service"},
	)

	// BreakerRejectedCalls tracks calls rejected by an open circuit breaker
	BreakerRejectedCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_rejected_calls_total",
			Help: "Calls rejected by an open circuit breaker",
		},
		[]string{"service"},
	)

	// RecoveryAttempts tracks automated recovery attempts
	RecoveryAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recovery_attempts_total",
			Help: "Total number of automated recovery attempts",
		},
	)

	// RecoverySuccess tracks recoveries where a strategy succeeded
	RecoverySuccess = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recovery_success_total",
			Help: "Total number of successful recoveries",
		},
	)

	// RecoveryFailure tracks episodes no strategy could recover
	RecoveryFailure = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recovery_failure_total",
			Help: "Total number of failed recoveries",
		},
	)

	// RecoveryDuration tracks how long recovery episodes take
	RecoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recovery_duration_seconds",
			Help:    "Duration of recovery attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
