package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/wooadminbot/internal/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(&buf, "warn", true)
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "קצר", logger.Truncate("קצר", 10))
	assert.Equal(t, "שלום...", logger.Truncate("שלום עולם ומלואו", 7))
	assert.Equal(t, "...", logger.Truncate("abcdef", 2))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(&buf, "info", true)

	called := false
	h := logger.Middleware(log)(func(context.Context, *bot.Bot, *models.Update) { called = true })
	h(context.Background(), nil, &models.Update{
		ID: 9,
		Message: &models.Message{
			ID:      3,
			Chat:    models.Chat{ID: 42},
			From:    &models.User{ID: 7},
			Caption: "Red Shirt",
			Photo:   []models.PhotoSize{{FileID: "f"}},
		},
	})

	require.True(t, called)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "photo", entry["update_type"])
	assert.Equal(t, float64(42), entry["chat_id"])
	assert.Equal(t, "Red Shirt", entry["text_preview"])
	assert.Contains(t, lines[1], "duration")
}
