package circuitbreaker

import (
	"log/slog"
	"sync"
)

// Registry owns one breaker per service name, created lazily on first use.
// Callers never pre-register services and never hold raw breaker references
// outside the registry's locking discipline.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker

	defaults  Config
	overrides map[string]Config
}

// NewRegistry creates a registry with the given default thresholds and
// optional per-service overrides. Zero override fields inherit the defaults.
func NewRegistry(defaults Config, overrides map[string]Config) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		defaults:  defaults.withDefaults(),
		overrides: overrides,
	}
}

// Execute runs work under the breaker for service, creating the breaker on
// first use.
func (r *Registry) Execute(service string, work func() error) error {
	return r.breaker(service).Execute(work)
}

// State reports the breaker state for service. Services that have never been
// seen report CLOSED: an unknown service is assumed healthy.
func (r *Registry) State(service string) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.breakers[service]; ok {
		return b.State()
	}
	return StateClosed
}

// Reset forces the named breaker back to CLOSED. No-op when the service has
// never been seen.
func (r *Registry) Reset(service string) {
	r.mu.RLock()
	b, ok := r.breakers[service]
	r.mu.RUnlock()

	if !ok {
		return
	}
	b.Reset()
	slog.Info("circuit breaker reset", "service", service)
}

// States returns a snapshot of all known breakers.
func (r *Registry) States() map[string]State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for service, b := range r.breakers {
		states[service] = b.State()
	}
	return states
}

func (r *Registry) breaker(service string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[service]
	r.mu.RUnlock()

	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check: another goroutine may have created it
	if b, ok = r.breakers[service]; ok {
		return b
	}

	b = New(service, r.configFor(service))
	r.breakers[service] = b
	return b
}

func (r *Registry) configFor(service string) Config {
	cfg := r.defaults
	o, ok := r.overrides[service]
	if !ok {
		return cfg
	}
	if o.FailureThreshold > 0 {
		cfg.FailureThreshold = o.FailureThreshold
	}
	if o.OpenTimeout > 0 {
		cfg.OpenTimeout = o.OpenTimeout
	}
	if o.HalfOpenSuccessThreshold > 0 {
		cfg.HalfOpenSuccessThreshold = o.HalfOpenSuccessThreshold
	}
	return cfg
}
