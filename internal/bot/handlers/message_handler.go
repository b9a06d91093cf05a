package handlers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/wooadminbot/internal/conversation"
)

const (
	processingTimeout  = 3 * time.Minute
	sendMessageTimeout = 10 * time.Second

	// maxMessageLength is Telegram's limit for one text message.
	maxMessageLength = 4096
)

// NewMessageHandler returns the default handler for text and photo messages.
// It is wrapped in AdminOnly because the default handler bypasses the
// per-command middleware.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	h := messageHandler{deps}
	return AdminOnly(deps)(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		h.handle(ctx, b, update)
	})
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) handle(ctx context.Context, api API, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update without message or sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	conv := conversation.ConversationID(chatID)

	ctx, cancel := context.WithTimeout(ctx, processingTimeout)
	defer cancel()

	switch {
	case len(msg.Photo) > 0:
		h.handlePhoto(ctx, api, log, chatID, conv, msg.Photo)
	case strings.TrimSpace(msg.Text) != "":
		h.handleText(ctx, api, log, chatID, conv, msg.Text)
	default:
		log.DebugContext(ctx, "Ignoring message without text or photo", "chat_id", chatID)
	}
}

func (h messageHandler) handlePhoto(ctx context.Context, api API, log *slog.Logger, chatID int64, conv string, sizes []models.PhotoSize) {
	stopTyping := keepTyping(ctx, api, log, chatID)
	defer stopTyping()

	photo := largestPhoto(sizes)
	log.InfoContext(ctx, "Handling photo", "chat_id", chatID, "width", photo.Width, "height", photo.Height)

	data, err := DownloadPhoto(ctx, api, h.deps.HTTPClient, photo.FileID, h.deps.Config.Media.MaxDownloadBytes)
	if err != nil {
		log.ErrorContext(ctx, "Photo download failed", "error", err, "chat_id", chatID, "file_id", photo.FileID)
		send(ctx, api, log, chatID, h.deps.Config.Messages.PhotoDownloadErrorMsg)
		return
	}

	send(ctx, api, log, chatID, h.deps.Engine.HandlePhoto(ctx, conv, data))
}

func (h messageHandler) handleText(ctx context.Context, api API, log *slog.Logger, chatID int64, conv, text string) {
	notice := h.deps.Config.Messages.ProcessingRequestMsg
	if h.deps.Engine.HasPending(ctx, conv) {
		notice = h.deps.Config.Messages.ProcessingPhotoMsg
	}
	noticeID := sendNotice(ctx, api, log, chatID, notice)
	stopTyping := keepTyping(ctx, api, log, chatID)

	reply := h.deps.Engine.HandleText(ctx, conv, text)

	stopTyping()
	deleteNotice(ctx, api, log, chatID, noticeID)
	send(ctx, api, log, chatID, reply)
}

// largestPhoto picks the size with the most pixels.
func largestPhoto(sizes []models.PhotoSize) models.PhotoSize {
	var best models.PhotoSize
	for _, p := range sizes {
		if p.Width*p.Height > best.Width*best.Height || best.FileID == "" {
			best = p
		}
	}
	return best
}

// send delivers text, split into chunks Telegram accepts.
func send(ctx context.Context, api API, log *slog.Logger, chatID int64, text string) {
	if strings.TrimSpace(text) == "" {
		log.WarnContext(ctx, "Refusing to send empty message", "chat_id", chatID)
		return
	}
	for _, chunk := range SplitMessage(text, maxMessageLength) {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendMessageTimeout)
		_, err := api.SendMessage(sendCtx, &bot.SendMessageParams{ChatID: chatID, Text: chunk})
		cancel()
		if err != nil {
			log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
			return
		}
	}
}

func sendNotice(ctx context.Context, api API, log *slog.Logger, chatID int64, text string) int {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	m, err := api.SendMessage(sendCtx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil || m == nil {
		log.WarnContext(ctx, "Failed to send processing notice", "error", err, "chat_id", chatID)
		return 0
	}
	return m.ID
}

func deleteNotice(ctx context.Context, api API, log *slog.Logger, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendMessageTimeout)
	defer cancel()
	if _, err := api.DeleteMessage(delCtx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		log.WarnContext(ctx, "Failed to delete processing notice", "error", err, "chat_id", chatID)
	}
}

// SplitMessage cuts text into pieces of at most limit runes, preferring line
// breaks as cut points.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.TrimRight(string(current), "\n"))
			current = current[:0]
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		r := []rune(line)
		if len(current)+len(r) > limit {
			flush()
		}
		for len(r) > limit {
			chunks = append(chunks, string(r[:limit]))
			r = r[limit:]
		}
		current = append(current, r...)
	}
	flush()
	return chunks
}
