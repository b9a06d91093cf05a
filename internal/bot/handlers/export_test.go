package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"
)

func HandleMessage(ctx context.Context, deps HandlerDeps, api API, update *models.Update) {
	messageHandler{deps}.handle(ctx, api, update)
}

func HandleStart(ctx context.Context, deps HandlerDeps, api API, update *models.Update) {
	startHandler{deps}.handle(ctx, api, update)
}

func HandleHelp(ctx context.Context, deps HandlerDeps, api API, update *models.Update) {
	helpHandler{deps}.handle(ctx, api, update)
}

func HandleReset(ctx context.Context, deps HandlerDeps, api API, update *models.Update) {
	resetHandler{deps}.handle(ctx, api, update)
}

func Authorize(ctx context.Context, api API, deps HandlerDeps, update *models.Update) bool {
	return authorize(ctx, api, deps, update)
}
