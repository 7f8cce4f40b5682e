package main

import (
	"context"
	"log/slog"
	"time"

	"domaauction/core"
	"domaauction/observability"
)

// runSweeper persists lazy expiry and commitment lapses on a fixed interval.
func runSweeper(ctx context.Context, node *core.Node, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		logger.Info("sweeper disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started := time.Now()
			changed, err := node.SweepExpired()
			observability.Sweeper().Observe(changed, time.Since(started), err)
			if err != nil {
				logger.Warn("sweep failed", "error", err)
				continue
			}
			if changed > 0 {
				logger.Info("swept lots", "changed", changed)
			}
		}
	}
}
