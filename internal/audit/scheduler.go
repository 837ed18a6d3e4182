package audit

// scheduler.go runs the retention job: entries older than the configured
// retention are purged periodically. The scheduler is long-running and stops
// when its context is cancelled. Individual purge failures are logged and
// retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig configures the retention scheduler.
type RetentionConfig struct {
	Retention     time.Duration // entries older than this are purged (default: 30 days)
	CheckInterval time.Duration // how often to run (default: 1h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.Retention <= 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Hour
	}
	return c
}

// StartRetentionScheduler purges old entries from p immediately and then
// every CheckInterval until ctx is cancelled. It blocks; run it in a goroutine.
func StartRetentionScheduler(ctx context.Context, p Purger, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("audit retention scheduler started",
		"retention", cfg.Retention.String(),
		"check_interval", cfg.CheckInterval.String(),
	)

	runRetentionJob(ctx, p, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit retention scheduler stopped")
			return
		case now := <-ticker.C:
			runRetentionJob(ctx, p, cfg, now)
		}
	}
}

// runRetentionJob performs one purge cycle.
func runRetentionJob(ctx context.Context, p Purger, cfg RetentionConfig, now time.Time) {
	start := time.Now()
	purged, err := p.Purge(ctx, now.Add(-cfg.Retention))
	if err != nil {
		slog.Error("audit purge failed", "error", err)
		return
	}
	slog.Info("purged audit entries",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
