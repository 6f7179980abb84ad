package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"witchmart/internal/platform/metrics"
)

// ExpiringStore is implemented by stores that need expired sessions swept.
// Redis expires keys on its own and does not implement it.
type ExpiringStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Cleanup periodically removes expired sessions.
type Cleanup struct {
	store    ExpiringStore
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// CleanupOption configures Cleanup.
type CleanupOption func(*Cleanup)

// WithCleanupInterval overrides the sweep interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(c *Cleanup) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithCleanupMetrics records swept sessions.
func WithCleanupMetrics(m *metrics.Metrics) CleanupOption {
	return func(c *Cleanup) {
		c.metrics = m
	}
}

// NewCleanup constructs the worker.
func NewCleanup(store ExpiringStore, logger *slog.Logger, opts ...CleanupOption) (*Cleanup, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	c := &Cleanup{
		store:    store,
		interval: time.Minute,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Start sweeps periodically until ctx is cancelled.
func (c *Cleanup) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.RunOnce(ctx); err != nil {
				c.logger.ErrorContext(ctx, "session cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and returns the number of sessions removed.
func (c *Cleanup) RunOnce(ctx context.Context) (int, error) {
	deleted, err := c.store.DeleteExpired(ctx, c.now())
	if err != nil {
		return 0, err
	}
	c.metrics.AddSessionsExpired(deleted)
	if deleted > 0 {
		c.logger.DebugContext(ctx, "expired sessions removed", "count", deleted)
	}
	return deleted, nil
}
