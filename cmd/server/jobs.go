// Package main provides the dialog server entry point.
package main

import (
	"context"
	"time"

	"github.com/ugrasage/sagebot-go/internal/logger"
	"github.com/ugrasage/sagebot-go/internal/storage"
)

// purgeInterval is how often abandoned clarification dialogs are
// cleaned up. A dialog can outlive its TTL by at most one interval.
const purgeInterval = 5 * time.Minute

// purgeStaleConversations periodically removes clarification dialogs
// the user never answered.
func purgeStaleConversations(ctx context.Context, db *storage.DB, ttl time.Duration, log *logger.Logger) {
	interval := purgeInterval
	if ttl < interval {
		interval = ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := db.PurgeStaleConversations(ctx, ttl)
			if err != nil {
				log.WithError(err).Error("Failed to purge stale conversations")
				continue
			}
			if purged > 0 {
				log.WithField("purged", purged).Debug("Stale conversations removed")
			}
		}
	}
}
