package config

import (
	"time"

	"github.com/mendhq/mender/internal/infra/github"
	redisclient "github.com/mendhq/mender/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	GitHub   github.Config      `yaml:"github"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Recovery RecoveryConfig     `yaml:"recovery"`
	Breakers BreakerConfig      `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RecoveryConfig tunes the rate-limit backoff handler.
type RecoveryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

// BreakerConfig holds circuit breaker defaults plus per-service overrides.
type BreakerConfig struct {
	FailureThreshold         int                        `yaml:"failure_threshold"`
	OpenTimeout              time.Duration              `yaml:"open_timeout"`
	HalfOpenSuccessThreshold int                        `yaml:"half_open_success_threshold"`
	Services                 map[string]BreakerOverride `yaml:"services"`
}

// BreakerOverride overrides breaker thresholds for one service. Zero fields
// inherit the defaults.
type BreakerOverride struct {
	FailureThreshold         int           `yaml:"failure_threshold"`
	OpenTimeout              time.Duration `yaml:"open_timeout"`
	HalfOpenSuccessThreshold int           `yaml:"half_open_success_threshold"`
}
