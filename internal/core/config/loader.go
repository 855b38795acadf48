package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/mendhq/mender/internal/infra/github"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.GitHub.APIURL == "" {
		cfg.GitHub.APIURL = github.DefaultAPIURL
	}
	if cfg.GitHub.Timeout == 0 {
		cfg.GitHub.Timeout = github.DefaultTimeout
	}
	if cfg.Recovery.MaxRetries == 0 {
		cfg.Recovery.MaxRetries = 3
	}
	if cfg.Recovery.InitialBackoff == 0 {
		cfg.Recovery.InitialBackoff = time.Second
	}
	if cfg.Breakers.FailureThreshold == 0 {
		cfg.Breakers.FailureThreshold = 5
	}
	if cfg.Breakers.OpenTimeout == 0 {
		cfg.Breakers.OpenTimeout = 60 * time.Second
	}
	if cfg.Breakers.HalfOpenSuccessThreshold == 0 {
		cfg.Breakers.HalfOpenSuccessThreshold = 3
	}

	return &cfg, nil
}
