package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// refetcher is the part of the cache the poller drives.
type refetcher interface {
	RefetchStale(ctx context.Context) (int, error)
}

// StartPoller launches a background goroutine that revalidates stale,
// observed cache entries at a fixed cadence, backing off while the backend
// keeps failing. It returns immediately.
func StartPoller(ctx context.Context, cache refetcher, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			failures = poll(ctx, cache, failures, logger)
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// poll runs one revalidation pass and returns the updated failure count.
func poll(ctx context.Context, cache refetcher, failures int, logger *zap.Logger) int {
	n, err := cache.RefetchStale(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return failures
		}
		failures++
		logger.Warn("revalidation failed",
			zap.Int("entries", n),
			zap.Int("consecutive_failures", failures),
			zap.Error(err))
		return failures
	}
	if n > 0 {
		logger.Debug("revalidated stale entries", zap.Int("entries", n))
	}
	return 0
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
