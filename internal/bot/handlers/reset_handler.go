package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/wooadminbot/internal/conversation"
)

const resetTimeout = 30 * time.Second

// NewResetHandler returns a handler for the /reset command.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	h := resetHandler{deps}
	return func(ctx context.Context, b *bot.Bot, update *models.Update) { h.handle(ctx, b, update) }
}

// resetHandler clears the chat's conversation memory and pending upload.
type resetHandler struct {
	deps HandlerDeps
}

func (h resetHandler) handle(ctx context.Context, api API, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset")
	if update.Message == nil {
		log.ErrorContext(ctx, "Reset handler called with nil Message", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Admin requested conversation reset", "chat_id", chatID)

	timeoutCtx, cancel := context.WithTimeout(ctx, resetTimeout)
	defer cancel()

	if err := h.deps.Engine.Reset(timeoutCtx, conversation.ConversationID(chatID)); err != nil {
		log.ErrorContext(ctx, "Failed to reset conversation", "error", err, "chat_id", chatID)
		send(ctx, api, log, chatID, h.deps.Config.Messages.ResetErrorMsg)
		return
	}
	send(ctx, api, log, chatID, h.deps.Config.Messages.ResetConfirmMsg)
}
