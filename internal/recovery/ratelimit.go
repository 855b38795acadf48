package recovery

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mendhq/mender/internal/core/domain"
)

// Substrings identifying a rate-limited failure, matched case-insensitively.
var rateLimitPatterns = []string{
	"rate limit",
	"429",
	"too many requests",
	"throttled",
}

// RateLimitHandler decorates a single delegate handler with exponential
// backoff for failures caused by rate limiting. The delegate is fixed at
// construction. Unrelated failure types pass straight through: no delegate
// call, no sleep.
type RateLimitHandler struct {
	Delegate       Handler
	MaxRetries     int
	InitialBackoff time.Duration
}

// NewRateLimitHandler wraps delegate with the default backoff schedule
// (3 attempts at 1s, 2s, 4s).
func NewRateLimitHandler(delegate Handler) *RateLimitHandler {
	return &RateLimitHandler{
		Delegate:       delegate,
		MaxRetries:     3,
		InitialBackoff: time.Second,
	}
}

func (h *RateLimitHandler) Name() string {
	return "rate-limit-backoff"
}

// AttemptRecovery retries the delegate with exponential backoff when the
// alert's error message indicates rate limiting. The message is classified
// once up front; the retry loop does not re-check it. The backoff wait is
// cancellable through ctx: cancellation aborts the loop and the context
// carries the cancellation to the caller.
func (h *RateLimitHandler) AttemptRecovery(ctx context.Context, alert *domain.Alert, attempt *domain.RecoveryAttempt) bool {
	if !IsRateLimitError(alert.ErrorMessage()) {
		slog.Debug("not a rate limit error, skipping rate limit handler", "alert", alert.Name())
		return false
	}

	slog.Info("detected rate limit error, applying exponential backoff",
		"alert", alert.Name(), "workflow", alert.WorkflowName())

	for retry := 0; retry < h.MaxRetries; retry++ {
		delay := h.backoff(retry)
		slog.Info("waiting before retry", "attempt", retry+1, "delay", delay)

		select {
		case <-ctx.Done():
			slog.Error("rate limit recovery interrupted", "error", ctx.Err())
			return false
		case <-time.After(delay):
		}

		attempt.RetryCount = retry + 1
		if h.Delegate.AttemptRecovery(ctx, alert, attempt) {
			slog.Info("rate limit recovery succeeded", "retries", retry+1)
			return true
		}
	}

	slog.Warn("rate limit recovery failed", "retries", h.MaxRetries)
	return false
}

// backoff returns InitialBackoff * 2^retry.
func (h *RateLimitHandler) backoff(retry int) time.Duration {
	return time.Duration(float64(h.InitialBackoff) * math.Pow(2, float64(retry)))
}

// IsRateLimitError reports whether an error message indicates rate limiting.
func IsRateLimitError(message string) bool {
	if message == "" {
		return false
	}
	lower := strings.ToLower(message)
	for _, pattern := range rateLimitPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
