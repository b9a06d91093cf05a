package tasks

import (
	"context"

	"github.com/edgard/wooadminbot/internal/metrics"
)

// ScheduledTaskFunc is the signature of every scheduled task.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by the name used in scheduler.tasks.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		"pending_sweep":     newPendingSweepTask(deps),
		"low_stock_report":  newLowStockReportTask(deps),
		"history_retention": newHistoryRetentionTask(deps),
		"sql_maintenance":   newSQLMaintenanceTask(deps),
	}
	for name, fn := range tasks {
		tasks[name] = counted(name, fn)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

func counted(name string, fn ScheduledTaskFunc) ScheduledTaskFunc {
	return func(ctx context.Context) error {
		err := fn(ctx)
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.ScheduledTaskRunsTotal.WithLabelValues(name, result).Inc()
		return err
	}
}
