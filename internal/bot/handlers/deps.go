package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/edgard/wooadminbot/internal/config"
)

// Conversation is the message engine behind the handlers.
type Conversation interface {
	HandlePhoto(ctx context.Context, conv string, image []byte) string
	HandleText(ctx context.Context, conv, text string) string
	HasPending(ctx context.Context, conv string) bool
	Reset(ctx context.Context, conv string) error
}

// HelpProvider renders the operation catalog for /help.
type HelpProvider interface {
	HelpText() string
}

// HandlerDeps provides dependencies for Telegram command handlers.
// HTTPClient downloads photos; nil means http.DefaultClient.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Engine     Conversation
	Help       HelpProvider
	HTTPClient *http.Client
}
