// Package handlers contains the Telegram command and message handlers, their
// registration and the admin-only middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly drops updates from anyone outside telegram.admin_user_ids after
// telling them they are not authorized.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if !authorize(ctx, bot, deps, update) {
				return
			}
			next(ctx, bot, update)
		}
	}
}

func authorize(ctx context.Context, api API, deps HandlerDeps, update *models.Update) bool {
	// Non-message updates carry nothing the bot acts on.
	if update.Message == nil {
		return true
	}
	if update.Message.From != nil && deps.Config.Telegram.IsAdmin(update.Message.From.ID) {
		return true
	}

	var userID int64
	if update.Message.From != nil {
		userID = update.Message.From.ID
	}
	chatID := update.Message.Chat.ID
	log := deps.Logger.With("middleware", "AdminOnly")
	log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", chatID)

	_, err := api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   deps.Config.Messages.ErrorUnauthorizedMsg,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send unauthorized message", "error", err, "chat_id", chatID)
	}
	return false
}
