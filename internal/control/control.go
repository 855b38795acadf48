// Package control wires the recovery subsystem together and manages its
// lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mendhq/mender/internal/core/config"
	"github.com/mendhq/mender/internal/health"
	"github.com/mendhq/mender/internal/infra/github"
	redisclient "github.com/mendhq/mender/internal/infra/redis"
	"github.com/mendhq/mender/internal/recovery"
	"github.com/mendhq/mender/internal/recovery/circuitbreaker"
)

// Config holds the assembled runtime configuration for the service.
type Config struct {
	Port     int
	GitHub   github.Config
	Redis    redisclient.Config
	Recovery config.RecoveryConfig
	Breakers config.BreakerConfig
}

// Service is the running recovery daemon: breaker registry, handler chain,
// orchestrator and ops server.
type Service struct {
	cfg          Config
	registry     *circuitbreaker.Registry
	orchestrator *recovery.Orchestrator
	opsServer    *health.Server
	redisClient  *redisclient.Client
}

// NewService builds the handler chain and supporting infrastructure.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	registry := circuitbreaker.NewRegistry(
		circuitbreaker.Config{
			FailureThreshold:         cfg.Breakers.FailureThreshold,
			OpenTimeout:              cfg.Breakers.OpenTimeout,
			HalfOpenSuccessThreshold: cfg.Breakers.HalfOpenSuccessThreshold,
		},
		breakerOverrides(cfg.Breakers.Services),
	)

	var orchestratorOpts []recovery.Option
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		orchestratorOpts = append(orchestratorOpts, recovery.WithAttemptStore(redisClient))
		slog.Info("recovery attempt history enabled")
	} else {
		slog.Info("redis not configured, attempt history disabled")
	}

	ghClient := github.NewClient(cfg.GitHub)
	if !ghClient.Enabled() {
		slog.Warn("github token not configured, workflow retries disabled")
	}

	workflowRetry := recovery.NewWorkflowRetryHandler(ghClient, registry)
	rateLimit := recovery.NewRateLimitHandler(workflowRetry)
	if cfg.Recovery.MaxRetries > 0 {
		rateLimit.MaxRetries = cfg.Recovery.MaxRetries
	}
	if cfg.Recovery.InitialBackoff > 0 {
		rateLimit.InitialBackoff = cfg.Recovery.InitialBackoff
	}

	orchestrator := recovery.NewOrchestrator(
		[]recovery.Handler{workflowRetry, rateLimit},
		orchestratorOpts...,
	)

	var attempts health.AttemptSource
	if redisClient != nil {
		attempts = redisClient
	}
	opsServer := health.NewServer(orchestrator, registry, attempts, cfg.Port)

	return &Service{
		cfg:          cfg,
		registry:     registry,
		orchestrator: orchestrator,
		opsServer:    opsServer,
		redisClient:  redisClient,
	}, nil
}

// Start runs the ops server in the background.
func (s *Service) Start(ctx context.Context) error {
	go func() {
		slog.Info("ops server listening", "port", s.cfg.Port)
		if err := s.opsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("ops server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the service down gracefully.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.opsServer.Stop(ctx); err != nil {
		return err
	}
	if s.redisClient != nil {
		return s.redisClient.Close()
	}
	return nil
}

// Breakers exposes the breaker registry for operator tooling.
func (s *Service) Breakers() *circuitbreaker.Registry {
	return s.registry
}

// Orchestrator exposes the orchestrator, mainly for tests.
func (s *Service) Orchestrator() *recovery.Orchestrator {
	return s.orchestrator
}

func breakerOverrides(services map[string]config.BreakerOverride) map[string]circuitbreaker.Config {
	if len(services) == 0 {
		return nil
	}
	overrides := make(map[string]circuitbreaker.Config, len(services))
	for name, o := range services {
		overrides[name] = circuitbreaker.Config{
			FailureThreshold:         o.FailureThreshold,
			OpenTimeout:              o.OpenTimeout,
			HalfOpenSuccessThreshold: o.HalfOpenSuccessThreshold,
		}
	}
	return overrides
}
