package config

import (
	"os"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad_EnvSubstitution(t *testing.T) {
	os.Setenv("TEST_GITHUB_TOKEN", "ghp_secret123")
	defer os.Unsetenv("TEST_GITHUB_TOKEN")

	path := writeConfig(t, `
github:
  token: ${TEST_GITHUB_TOKEN}
  repository: acme/pipeline
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GitHub.Token != "ghp_secret123" {
		t.Errorf("Expected token ghp_secret123, got %s", cfg.GitHub.Token)
	}
	if cfg.GitHub.Repository != "acme/pipeline" {
		t.Errorf("Expected repository acme/pipeline, got %s", cfg.GitHub.Repository)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
github:
  repository: acme/pipeline
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Recovery.MaxRetries != 3 {
		t.Errorf("default max_retries = %d, want 3", cfg.Recovery.MaxRetries)
	}
	if cfg.Recovery.InitialBackoff != time.Second {
		t.Errorf("default initial_backoff = %v, want 1s", cfg.Recovery.InitialBackoff)
	}
	if cfg.Breakers.FailureThreshold != 5 {
		t.Errorf("default failure_threshold = %d, want 5", cfg.Breakers.FailureThreshold)
	}
	if cfg.Breakers.OpenTimeout != 60*time.Second {
		t.Errorf("default open_timeout = %v, want 60s", cfg.Breakers.OpenTimeout)
	}
	if cfg.Breakers.HalfOpenSuccessThreshold != 3 {
		t.Errorf("default half_open_success_threshold = %d, want 3", cfg.Breakers.HalfOpenSuccessThreshold)
	}
	// No token configured means workflow retries stay disabled
	if cfg.GitHub.Token != "" {
		t.Errorf("default token = %q, want empty", cfg.GitHub.Token)
	}
}

func TestLoad_BreakerOverrides(t *testing.T) {
	path := writeConfig(t, `
circuit_breaker:
  failure_threshold: 10
  services:
    github-api:
      failure_threshold: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Breakers.FailureThreshold != 10 {
		t.Errorf("failure_threshold = %d, want 10", cfg.Breakers.FailureThreshold)
	}
	o, ok := cfg.Breakers.Services["github-api"]
	if !ok {
		t.Fatal("github-api override missing")
	}
	if o.FailureThreshold != 2 {
		t.Errorf("override failure_threshold = %d, want 2", o.FailureThreshold)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load succeeded for a missing file")
	}
}
