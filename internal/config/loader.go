package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. An optional .env file in the working directory
// 3. The YAML file at path (a missing file is allowed)
// 4. BOT_* environment variables (BOT_STORE_BASE_URL, BOT_TELEGRAM_TOKEN, ...)
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		slog.Info("Config file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{Messages: DefaultMessages}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct constraints and the cross-field rules validator tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Pending.Backend == "redis" && c.Pending.Redis.Addr == "" {
		return fmt.Errorf("invalid configuration: pending.redis.addr is required when pending.backend is redis")
	}
	return nil
}

// setDefaults registers every key so that BOT_* environment variables can
// override values that are absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_ids", []int64{})

	v.SetDefault("store.base_url", "")
	v.SetDefault("store.consumer_key", "")
	v.SetDefault("store.consumer_secret", "")
	v.SetDefault("store.wp_user", "")
	v.SetDefault("store.wp_app_password", "")
	v.SetDefault("store.timeout", DefaultStoreTimeout)
	v.SetDefault("store.connect_timeout", DefaultStoreConnectTimeout)
	v.SetDefault("store.max_retries", DefaultStoreMaxRetries)
	v.SetDefault("store.retry_base_delay", DefaultStoreRetryBaseDelay)
	v.SetDefault("store.product_list_size", DefaultStoreProductListSize)
	v.SetDefault("store.insecure_skip_verify", false)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_delay_seconds", DefaultGeminiRetryDelaySeconds)
	v.SetDefault("gemini.history_messages", DefaultGeminiHistoryMessages)
	v.SetDefault("gemini.timeout", DefaultGeminiTimeout)
	v.SetDefault("gemini.system_instruction", "")

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.history_retention", DefaultHistoryRetention)
	v.SetDefault("database.audit_retention", DefaultAuditRetention)

	v.SetDefault("pending.backend", DefaultPendingBackend)
	v.SetDefault("pending.ttl", DefaultPendingTTL)
	v.SetDefault("pending.redis.addr", "")
	v.SetDefault("pending.redis.password", "")
	v.SetDefault("pending.redis.db", 0)
	v.SetDefault("pending.redis.prefix", DefaultRedisPrefix)

	v.SetDefault("media.max_dimension", DefaultMediaMaxDimension)
	v.SetDefault("media.jpeg_quality", DefaultMediaJPEGQuality)
	v.SetDefault("media.max_download_bytes", DefaultMediaMaxDownloadBytes)

	v.SetDefault("status.enabled", true)
	v.SetDefault("status.addr", DefaultStatusAddr)

	// Per-field defaults so a file that only sets tasks.x.enabled keeps the default schedule.
	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
}
