// Package main contains the entrypoint for the store admin bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/redis/go-redis/v9"

	"github.com/edgard/wooadminbot/internal/bot"
	"github.com/edgard/wooadminbot/internal/bot/handlers"
	"github.com/edgard/wooadminbot/internal/bot/tasks"
	"github.com/edgard/wooadminbot/internal/config"
	"github.com/edgard/wooadminbot/internal/conversation"
	"github.com/edgard/wooadminbot/internal/database"
	"github.com/edgard/wooadminbot/internal/dispatch"
	"github.com/edgard/wooadminbot/internal/gemini"
	"github.com/edgard/wooadminbot/internal/logger"
	"github.com/edgard/wooadminbot/internal/media"
	"github.com/edgard/wooadminbot/internal/pending"
	"github.com/edgard/wooadminbot/internal/resolver"
	"github.com/edgard/wooadminbot/internal/telegram"
	"github.com/edgard/wooadminbot/internal/woocommerce"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	client, err := woocommerce.NewClient(cfg.Store, log)
	if err != nil {
		log.Error("Failed to create store client", "error", err)
		return 1
	}

	checks := map[string]bot.HealthCheck{"database": store.Ping}
	pendingStore, sweeper, closePending, err := newPendingStore(ctx, cfg.Pending, log)
	if err != nil {
		log.Error("Failed to create pending upload store", "backend", cfg.Pending.Backend, "error", err)
		return 1
	}
	defer closePending()
	if rs, ok := pendingStore.(interface{ Ping(context.Context) error }); ok {
		checks["redis"] = rs.Ping
	}

	classifier, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	productResolver := resolver.New(client, log)
	pipeline := media.NewPipeline(client, log)
	dispatcher := dispatch.New(dispatch.Deps{
		Client:          client,
		Resolver:        productResolver,
		Media:           pipeline,
		Messages:        cfg.Messages,
		Recorder:        store,
		Logger:          log,
		ProductListSize: cfg.Store.ProductListSize,
	})
	engine := conversation.New(conversation.Deps{
		Pending:         pendingStore,
		Products:        client,
		Resolver:        productResolver,
		Media:           pipeline,
		Dispatcher:      dispatcher,
		Classifier:      classifier,
		History:         store,
		Normalizer:      media.Normalizer{MaxDimension: cfg.Media.MaxDimension, JPEGQuality: cfg.Media.JPEGQuality},
		Messages:        cfg.Messages,
		ProductListSize: cfg.Store.ProductListSize,
		HistoryMessages: cfg.Gemini.HistoryMessages,
		Logger:          log,
	})

	hDeps := handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Engine: engine,
		Help:   dispatcher,
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Client:   client,
		Sweeper:  sweeper,
		Notifier: tg,
		Config:   cfg,
	})
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, tg, sched, bot.NewStatusRouter(checks))

	runErr := app.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}

// newPendingStore builds the configured backend. The sweeper is nil for
// Redis, which expires keys itself.
func newPendingStore(ctx context.Context, cfg config.PendingConfig, log *slog.Logger) (pending.Store, tasks.Sweeper, func(), error) {
	switch cfg.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Info("Using Redis pending upload store", "addr", cfg.Redis.Addr, "ttl", cfg.TTL)
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				log.Warn("Failed to close redis client", "error", err)
			}
		}
		return pending.NewRedisStore(rdb, cfg.Redis.Prefix, cfg.TTL), nil, closeFn, nil
	default:
		log.Info("Using in-memory pending upload store", "ttl", cfg.TTL)
		s := pending.NewMemoryStore(cfg.TTL)
		return s, s, func() {}, nil
	}
}
