package circuitbreaker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mendhq/mender/internal/metrics"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // normal operation, calls pass through
	StateOpen                  // failing, calls rejected
	StateHalfOpen              // probing whether the service recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// OpenError is returned when a call is rejected because the breaker is open.
// The guarded work was never invoked.
type OpenError struct {
	Service string
}

func (e *OpenError) Error() string {
	return "circuit breaker is open for service: " + e.Service
}

// Config holds per-breaker thresholds. Zero fields fall back to defaults.
type Config struct {
	FailureThreshold         int
	OpenTimeout              time.Duration
	HalfOpenSuccessThreshold int
}

const (
	DefaultFailureThreshold         = 5
	DefaultOpenTimeout              = 60 * time.Second
	DefaultHalfOpenSuccessThreshold = 3
)

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = DefaultOpenTimeout
	}
	if c.HalfOpenSuccessThreshold <= 0 {
		c.HalfOpenSuccessThreshold = DefaultHalfOpenSuccessThreshold
	}
	return c
}

// Breaker guards calls to one named external service. It fails fast once
// consecutive failures pass a threshold instead of repeatedly invoking a
// known-bad dependency, and probes for recovery through a HALF_OPEN window
// before fully reopening traffic.
type Breaker struct {
	name string
	cfg  Config

	mu                   sync.Mutex
	state                State
	failureCount         int
	halfOpenSuccessCount int
	openedAt             time.Time // zero unless OPEN was entered

	now func() time.Time
}

// New creates a breaker for the named service.
func New(name string, cfg Config) *Breaker {
	return &Breaker{
		name: name,
		cfg:  cfg.withDefaults(),
		now:  time.Now,
	}
}

// Execute runs work under the breaker. The work function runs while the
// breaker's lock is held, so at most one call is in flight per breaker; in
// HALF_OPEN this is what limits probing to a single call at a time.
//
// A rejected call returns *OpenError without invoking work. When work runs
// and fails, its error is returned unchanged after failure bookkeeping — the
// breaker never swallows it. The breaker does not retry; that is the
// caller's responsibility.
func (b *Breaker) Execute(work func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.openTimeoutElapsed() {
			b.transitionTo(StateHalfOpen)
		} else {
			metrics.BreakerRejectedCalls.WithLabelValues(b.name).Inc()
			return &OpenError{Service: b.name}
		}
	}

	if err := work(); err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to CLOSED with all counters zeroed,
// regardless of current state. Idempotent; meant for operator intervention.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

func (b *Breaker) openTimeoutElapsed() bool {
	return !b.openedAt.IsZero() && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateHalfOpen:
		b.halfOpenSuccessCount++
		if b.halfOpenSuccessCount >= b.cfg.HalfOpenSuccessThreshold {
			b.reset()
		}
	case StateClosed:
		b.failureCount = 0
	}
}

func (b *Breaker) onFailure() {
	b.failureCount++

	if b.state == StateHalfOpen {
		b.transitionTo(StateOpen)
		b.openedAt = b.now()
		b.halfOpenSuccessCount = 0
	} else if b.state == StateClosed && b.failureCount >= b.cfg.FailureThreshold {
		b.transitionTo(StateOpen)
		b.openedAt = b.now()
	}
}

func (b *Breaker) reset() {
	b.transitionTo(StateClosed)
	b.failureCount = 0
	b.halfOpenSuccessCount = 0
	b.openedAt = time.Time{}
}

func (b *Breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}
	slog.Info("circuit breaker state change",
		"service", b.name,
		"from", b.state.String(),
		"to", newState.String(),
	)
	b.state = newState
	metrics.BreakerStateChanges.WithLabelValues(b.name).Inc()
}
