package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mendhq/mender/internal/core/domain"
)

const (
	attemptsKey = "recovery:attempts"

	// attemptsLimit caps the history list; older entries are trimmed.
	attemptsLimit = 1000
)

// RecordAttempt prepends a finished recovery attempt to the capped history
// list.
func (c *Client) RecordAttempt(ctx context.Context, attempt *domain.RecoveryAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, attemptsKey, data)
	pipe.LTrim(ctx, attemptsKey, 0, attemptsLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lpush failed: %w", err)
	}
	return nil
}

// RecentAttempts returns up to limit most recent attempts, newest first.
func (c *Client) RecentAttempts(ctx context.Context, limit int64) ([]*domain.RecoveryAttempt, error) {
	if limit <= 0 || limit > attemptsLimit {
		limit = attemptsLimit
	}

	rows, err := c.rdb.LRange(ctx, attemptsKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}

	attempts := make([]*domain.RecoveryAttempt, 0, len(rows))
	for _, row := range rows {
		var a domain.RecoveryAttempt
		if err := json.Unmarshal([]byte(row), &a); err != nil {
			return nil, fmt.Errorf("invalid attempt record: %w", err)
		}
		attempts = append(attempts, &a)
	}
	return attempts, nil
}
