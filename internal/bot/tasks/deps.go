// Package tasks implements the bot's scheduled tasks and their registry.
package tasks

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/wooadminbot/internal/config"
	"github.com/edgard/wooadminbot/internal/database"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

// Sweeper drops expired pending uploads. Only the memory store needs it.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Notifier sends messages to admins. *bot.Bot implements it.
type Notifier interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
// Sweeper is nil when pending uploads expire on their own.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Client   *woocommerce.Client
	Sweeper  Sweeper
	Notifier Notifier
	Config   *config.Config
}
