// Package github is a minimal client for the GitHub Actions REST API,
// covering the calls the recovery subsystem needs: finding the most recent
// failed workflow run and re-running its failed jobs.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	DefaultAPIURL  = "https://api.github.com"
	DefaultTimeout = 10 * time.Second

	acceptHeader  = "application/vnd.github+json"
	apiVersion    = "2022-11-28"
	maxErrorBytes = 1024
)

// Config holds GitHub API client configuration.
type Config struct {
	Token      string        `yaml:"token"`      // empty disables all outbound calls
	Repository string        `yaml:"repository"` // "owner/repo"
	APIURL     string        `yaml:"api_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Client calls the GitHub Actions API for one repository.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a GitHub API client with a bounded request timeout.
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Enabled reports whether an API token is configured. Without a token the
// client makes no network calls.
func (c *Client) Enabled() bool {
	return c.cfg.Token != ""
}

// Repository returns the configured "owner/repo" target.
func (c *Client) Repository() string {
	return c.cfg.Repository
}

// LastFailedRun returns the ID of the repository's most recent failed
// workflow run, or "" when none exists.
func (c *Client) LastFailedRun(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/actions/runs?status=failure&per_page=1",
		c.cfg.APIURL, c.cfg.Repository)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("list workflow runs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httpError(resp)
	}

	var payload struct {
		WorkflowRuns []struct {
			ID int64 `json:"id"`
		} `json:"workflow_runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(payload.WorkflowRuns) == 0 {
		return "", nil
	}
	return strconv.FormatInt(payload.WorkflowRuns[0].ID, 10), nil
}

// RerunFailedJobs asks GitHub to re-run the failed jobs of a workflow run.
// GitHub acknowledges the rerun with 201 Created; anything else is an error.
func (c *Client) RerunFailedJobs(ctx context.Context, runID string) error {
	url := fmt.Sprintf("%s/repos/%s/actions/runs/%s/rerun-failed-jobs",
		c.cfg.APIURL, c.cfg.Repository, runID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rerun failed jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return httpError(resp)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
}

func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
}
