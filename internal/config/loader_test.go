package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/wooadminbot/internal/config"
)

const minimalYAML = `
telegram:
  token: "123:abc"
  admin_user_ids: [42]
store:
  base_url: "https://shop.example.com"
  consumer_key: "ck_x"
  consumer_secret: "cs_x"
  wp_user: "admin"
  wp_app_password: "app pass"
gemini:
  api_key: "g-key"
scheduler:
  tasks:
    low_stock_report:
      enabled: true
messages:
  welcome_fmt: "hi %s"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com", cfg.Store.BaseURL)
	assert.Equal(t, 3, cfg.Store.MaxRetries)
	assert.Equal(t, time.Second, cfg.Store.RetryBaseDelay)
	assert.Equal(t, 30*time.Minute, cfg.Pending.TTL)
	assert.Equal(t, "memory", cfg.Pending.Backend)
	assert.Equal(t, 800, cfg.Media.MaxDimension)
	assert.True(t, cfg.Telegram.IsAdmin(42))
	assert.False(t, cfg.Telegram.IsAdmin(7))

	// Overridden message keeps the rest of the defaults.
	assert.Equal(t, "hi %s", cfg.Messages.WelcomeFmt)
	assert.Equal(t, config.DefaultMessages.PhotoPromptFmt, cfg.Messages.PhotoPromptFmt)

	// Partially configured task keeps its default schedule.
	lowStock := cfg.Scheduler.Tasks["low_stock_report"]
	assert.True(t, lowStock.Enabled)
	assert.Equal(t, config.DefaultTasks["low_stock_report"].Schedule, lowStock.Schedule)
	assert.Contains(t, cfg.Scheduler.Tasks, "pending_sweep")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BOT_STORE_MAX_RETRIES", "5")
	t.Setenv("BOT_PENDING_TTL", "10m")

	cfg, err := config.LoadConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Store.MaxRetries)
	assert.Equal(t, 10*time.Minute, cfg.Pending.TTL)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]string
	}{
		{"redis backend without addr", map[string]string{"BOT_PENDING_BACKEND": "redis"}},
		{"unknown backend", map[string]string{"BOT_PENDING_BACKEND": "etcd"}},
		{"bad log level", map[string]string{"BOT_LOGGER_LEVEL": "verbose"}},
		{"invalid base url", map[string]string{"BOT_STORE_BASE_URL": "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.extra {
				t.Setenv(k, v)
			}
			_, err := config.LoadConfig(writeConfig(t, minimalYAML))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
