// Package config provides configuration loading, validation, and management
// for the store admin bot. It reads a YAML file, applies defaults and BOT_*
// environment overrides through viper, and validates the result.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config is the root configuration for all components of the bot.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Store     StoreConfig     `mapstructure:"store"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Pending   PendingConfig   `mapstructure:"pending"`
	Media     MediaConfig     `mapstructure:"media"`
	Status    StatusConfig    `mapstructure:"status"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot token and the users allowed to operate the store.
type TelegramConfig struct {
	Token        string  `mapstructure:"token"          validate:"required"`
	AdminUserIDs []int64 `mapstructure:"admin_user_ids" validate:"required,min=1,dive,gt=0"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// IsAdmin reports whether userID may use the bot.
func (c TelegramConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// StoreConfig describes the WooCommerce REST API and the WordPress media endpoint.
type StoreConfig struct {
	BaseURL            string        `mapstructure:"base_url"             validate:"required,url"`
	ConsumerKey        string        `mapstructure:"consumer_key"         validate:"required"`
	ConsumerSecret     string        `mapstructure:"consumer_secret"      validate:"required"`
	WPUser             string        `mapstructure:"wp_user"              validate:"required"`
	WPAppPassword      string        `mapstructure:"wp_app_password"      validate:"required"`
	Timeout            time.Duration `mapstructure:"timeout"              validate:"min=1s,max=5m"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"      validate:"min=1s,max=1m"`
	MaxRetries         int           `mapstructure:"max_retries"          validate:"min=1,max=10"`
	RetryBaseDelay     time.Duration `mapstructure:"retry_base_delay"     validate:"min=0,max=1m"`
	ProductListSize    int           `mapstructure:"product_list_size"    validate:"min=1,max=100"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// GeminiConfig configures the intent classifier.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"             validate:"required"`
	ModelName         string        `mapstructure:"model_name"          validate:"required"`
	Temperature       float32       `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
	HistoryMessages   int           `mapstructure:"history_messages"    validate:"min=0,max=100"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=10m"`
	SystemInstruction string        `mapstructure:"system_instruction"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path             string        `mapstructure:"path"              validate:"required"`
	HistoryRetention time.Duration `mapstructure:"history_retention" validate:"min=1h"`
	AuditRetention   time.Duration `mapstructure:"audit_retention"   validate:"min=1h"`
}

// PendingConfig selects the pending-upload store backend.
type PendingConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl"     validate:"min=1m,max=168h"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds connection settings for the Redis pending store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"     validate:"min=0"`
	Prefix   string `mapstructure:"prefix" validate:"required"`
}

// MediaConfig controls image normalization and download limits.
type MediaConfig struct {
	MaxDimension     int   `mapstructure:"max_dimension"      validate:"min=64,max=4096"`
	JPEGQuality      int   `mapstructure:"jpeg_quality"       validate:"min=1,max=100"`
	MaxDownloadBytes int64 `mapstructure:"max_download_bytes" validate:"min=1024"`
}

// StatusConfig configures the health and metrics HTTP server.
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// SchedulerConfig lists scheduled tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule (seconds field allowed).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user-facing string that is not produced by an
// individual store operation.
type MessagesConfig struct {
	WelcomeFmt           string `mapstructure:"welcome_fmt"            validate:"required"`
	HelpHeader           string `mapstructure:"help_header"            validate:"required"`
	ErrorUnauthorizedMsg string `mapstructure:"error_unauthorized_msg" validate:"required"`
	ErrorGeneralMsg      string `mapstructure:"error_general_msg"      validate:"required"`
	ClassifierErrorMsg   string `mapstructure:"classifier_error_msg"   validate:"required"`
	UnknownOperationFmt  string `mapstructure:"unknown_operation_fmt"  validate:"required"`
	ProcessingRequestMsg string `mapstructure:"processing_request_msg" validate:"required"`
	ProcessingPhotoMsg   string `mapstructure:"processing_photo_msg"   validate:"required"`

	PhotoPromptFmt        string `mapstructure:"photo_prompt_fmt"         validate:"required"`
	PhotoNotFoundFmt      string `mapstructure:"photo_not_found_fmt"      validate:"required"`
	PhotoNoProductsMsg    string `mapstructure:"photo_no_products_msg"    validate:"required"`
	PhotoDownloadErrorMsg string `mapstructure:"photo_download_error_msg" validate:"required"`
	PhotoErrorMsg         string `mapstructure:"photo_error_msg"          validate:"required"`

	AttachSuccessFmt     string `mapstructure:"attach_success_fmt"      validate:"required"`
	AttachPreviewFmt     string `mapstructure:"attach_preview_fmt"      validate:"required"`
	AttachFetchErrorMsg  string `mapstructure:"attach_fetch_error_msg"  validate:"required"`
	AttachUploadErrorMsg string `mapstructure:"attach_upload_error_msg" validate:"required"`
	AttachUpdateErrorMsg string `mapstructure:"attach_update_error_msg" validate:"required"`
	AttachVerifyErrorMsg string `mapstructure:"attach_verify_error_msg" validate:"required"`
	AttachRetryHint      string `mapstructure:"attach_retry_hint"       validate:"required"`

	NotFoundFmt         string `mapstructure:"not_found_fmt"         validate:"required"`
	RemoteConnectionMsg string `mapstructure:"remote_connection_msg" validate:"required"`
	RemoteTimeoutMsg    string `mapstructure:"remote_timeout_msg"    validate:"required"`
	RemoteStatusFmt     string `mapstructure:"remote_status_fmt"     validate:"required"`

	ResetConfirmMsg string `mapstructure:"reset_confirm_msg" validate:"required"`
	ResetErrorMsg   string `mapstructure:"reset_error_msg"   validate:"required"`

	LowStockReportHeader string `mapstructure:"low_stock_report_header" validate:"required"`
}
