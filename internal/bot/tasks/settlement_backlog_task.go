package tasks

import (
	"context"
	"fmt"
)

// newSettlementBacklogTask logs the number of queued tips and warns when settlement falls
// behind.
func newSettlementBacklogTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "settlement_backlog")

	return func(ctx context.Context) error {
		pending, err := deps.Queue.Pending(ctx)
		if err != nil {
			return fmt.Errorf("failed to count pending tips: %w", err)
		}

		if deps.BacklogWarn > 0 && pending > deps.BacklogWarn {
			log.WarnContext(ctx, "Settlement backlog above threshold", "pending", pending, "threshold", deps.BacklogWarn)
			return nil
		}
		log.InfoContext(ctx, "Settlement backlog", "pending", pending)
		return nil
	}
}
