package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// newHistoryRetentionTask purges conversation turns and audit rows past their
// configured retention. A zero retention keeps everything.
func newHistoryRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "history_retention")

	return func(ctx context.Context) error {
		var errs []error
		cfg := deps.Config.Database

		if cfg.HistoryRetention > 0 {
			n, err := deps.Store.PurgeMessagesBefore(ctx, time.Now().Add(-cfg.HistoryRetention))
			if err != nil {
				errs = append(errs, err)
			} else {
				log.InfoContext(ctx, "Purged conversation history", "rows", n, "retention", cfg.HistoryRetention)
			}
		}
		if cfg.AuditRetention > 0 {
			n, err := deps.Store.PurgeOperationsBefore(ctx, time.Now().Add(-cfg.AuditRetention))
			if err != nil {
				errs = append(errs, err)
			} else {
				log.InfoContext(ctx, "Purged operation log", "rows", n, "retention", cfg.AuditRetention)
			}
		}

		if err := errors.Join(errs...); err != nil {
			log.ErrorContext(ctx, "History retention failed", "error", err)
			return fmt.Errorf("history retention failed: %w", err)
		}
		return nil
	}
}
