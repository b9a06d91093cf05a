package tasks

import "context"

func newPendingSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "pending_sweep")

	return func(ctx context.Context) error {
		if deps.Sweeper == nil {
			log.DebugContext(ctx, "Pending store expires entries itself, nothing to sweep")
			return nil
		}
		if n := deps.Sweeper.Sweep(ctx); n > 0 {
			log.InfoContext(ctx, "Expired pending uploads removed", "count", n)
		}
		return nil
	}
}
