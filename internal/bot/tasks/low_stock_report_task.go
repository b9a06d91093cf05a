package tasks

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/edgard/wooadminbot/internal/dispatch"
)

// newLowStockReportTask sends the low stock list to every admin. Nothing is
// sent when no product is low.
func newLowStockReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "low_stock_report")

	return func(ctx context.Context) error {
		products, err := dispatch.LowStock(ctx, deps.Client, dispatch.DefaultLowStockThreshold)
		if err != nil {
			log.ErrorContext(ctx, "Failed to fetch low stock products", "error", err)
			return fmt.Errorf("low stock report failed: %w", err)
		}

		report := dispatch.FormatLowStock(products, dispatch.DefaultLowStockThreshold)
		if report == "" {
			log.InfoContext(ctx, "No low stock products")
			return nil
		}
		text := deps.Config.Messages.LowStockReportHeader + report

		var failed int
		for _, adminID := range deps.Config.Telegram.AdminUserIDs {
			if _, err := deps.Notifier.SendMessage(ctx, &bot.SendMessageParams{ChatID: adminID, Text: text}); err != nil {
				failed++
				log.ErrorContext(ctx, "Failed to send low stock report", "error", err, "admin_id", adminID)
			}
		}
		if failed == len(deps.Config.Telegram.AdminUserIDs) {
			return fmt.Errorf("low stock report reached no admin")
		}

		log.InfoContext(ctx, "Low stock report sent", "products", len(products), "admins", len(deps.Config.Telegram.AdminUserIDs)-failed)
		return nil
	}
}
