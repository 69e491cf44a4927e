package tasks

import (
	"context"
	"fmt"
	"time"
)

// newRetentionAuditTask creates the scheduled task that finds groups whose
// message logs grew past the retention cap and trims them back. The insert
// path trims on every write, so this catches leftovers from crashes between
// an append and its trim.
func newRetentionAuditTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "retention_audit")
	retentionCap := deps.Config.Database.RetentionCap

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting retention audit task...")
		startTime := time.Now()

		groupIDs, err := deps.Store.GroupsOverCap(ctx, retentionCap)
		if err != nil {
			log.ErrorContext(ctx, "Retention audit failed to list groups", "error", err)
			return fmt.Errorf("retention audit failed: %w", err)
		}

		var trimmed int64
		for _, groupID := range groupIDs {
			deleted, err := deps.Store.TrimToMostRecent(ctx, groupID, retentionCap)
			if err != nil {
				log.ErrorContext(ctx, "Retention audit failed to trim group",
					"group_id", groupID, "error", err)
				return fmt.Errorf("retention audit trim for group %d failed: %w", groupID, err)
			}
			trimmed += deleted
		}

		log.InfoContext(ctx, "Retention audit task completed",
			"groups_over_cap", len(groupIDs), "messages_trimmed", trimmed,
			"duration", time.Since(startTime))
		return nil
	}
}
