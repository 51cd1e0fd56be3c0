package main

import (
	"fmt"
	"log/slog"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/spf13/cobra"

	"github.com/edgard/nanotipbot/internal/account"
	"github.com/edgard/nanotipbot/internal/bot"
	"github.com/edgard/nanotipbot/internal/bot/handlers"
	"github.com/edgard/nanotipbot/internal/bot/tasks"
	"github.com/edgard/nanotipbot/internal/config"
	"github.com/edgard/nanotipbot/internal/database"
	"github.com/edgard/nanotipbot/internal/logger"
	"github.com/edgard/nanotipbot/internal/nano"
	"github.com/edgard/nanotipbot/internal/server"
	"github.com/edgard/nanotipbot/internal/settlement"
	"github.com/edgard/nanotipbot/internal/telegram"
	"github.com/edgard/nanotipbot/internal/tipping"
	"github.com/edgard/nanotipbot/internal/twitter"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the webhooks and process tips",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

// runServe wires every component and blocks until the context is cancelled.
func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath(cmd), "error", err)
		return err
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return err
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	node := nano.NewGuarded(nano.NewClient(cfg.Nano, log), cfg.Nano, log)
	queue := settlement.NewQueue(store, log)

	tipCfg, err := cfg.TippingConfig()
	if err != nil {
		return err
	}
	notifiers := make(map[tipping.Platform]tipping.Notifier)

	var twClient *twitter.Client
	if cfg.Twitter.Enabled {
		twClient = twitter.NewClient(cfg.Twitter, log)
		handle := strings.ToLower(strings.TrimPrefix(cfg.Twitter.BotHandle, "@"))
		tipCfg.Platforms[tipping.PlatformTwitter] = tipping.PlatformRules{
			BotHandle:  handle,
			Recipients: tipping.HandleSource{Directory: twitter.Directory{Client: twClient}, BotHandle: handle},
		}
		notifiers[tipping.PlatformTwitter] = twitter.Notifier{Client: twClient}
	}

	// The Telegram notifier needs the bot, and the bot's handlers need the pipeline; the
	// sender is filled in once the bot exists.
	tgNotifier := &telegram.Notifier{}
	if cfg.Telegram.Enabled {
		handle := strings.ToLower(strings.TrimPrefix(cfg.Telegram.BotUsername, "@"))
		tipCfg.Platforms[tipping.PlatformTelegram] = tipping.PlatformRules{
			BotHandle:         handle,
			RequireBotMention: true,
			Recipients:        tipping.NewChatSource(telegram.ChatDirectory{DB: store}, handle),
		}
		notifiers[tipping.PlatformTelegram] = tgNotifier
	}

	pipeline, err := tipping.NewPipeline(tipCfg, tipping.Deps{
		Accounts:  account.Store{DB: store},
		Node:      node,
		Sink:      queue,
		Notifiers: notifiers,
		Logger:    log,
	})
	if err != nil {
		log.Error("Failed to create tip pipeline", "error", err)
		return err
	}

	registrar := account.NewRegistrar(account.RegistrarDeps{
		DB:        store,
		Node:      node,
		QR:        account.QRCache{Dir: cfg.Tip.QRDir},
		Notifiers: notifiers,
		Intro:     cfg.Messages.AccountIntro,
		Timeout:   cfg.Tip.CallTimeout,
		Logger:    log,
	})

	routes := server.Deps{Logger: log, Store: store, Node: node}
	var worker bot.UpdateWorker

	if cfg.Telegram.Enabled {
		hDeps := handlers.HandlerDeps{
			Logger:    log,
			Config:    cfg,
			Store:     store,
			Tips:      pipeline,
			Registrar: registrar,
			Notifier:  tgNotifier,
		}
		opts := []tgbot.Option{
			tgbot.WithMiddlewares(logger.Middleware(log)),
			tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
		}
		if cfg.Telegram.WebhookSecret != "" {
			opts = append(opts, tgbot.WithWebhookSecretToken(cfg.Telegram.WebhookSecret))
		}
		tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, opts...)
		if err != nil {
			log.Error("Failed to create Telegram bot", "error", err)
			return err
		}
		tgNotifier.Bot = tg

		cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
		if err != nil {
			log.Error("Failed to get bot info", "error", err)
			return fmt.Errorf("failed to get telegram bot info: %w", err)
		}
		log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)
		if !strings.EqualFold(cfg.Telegram.BotInfo.Username, cfg.Telegram.BotUsername) {
			log.Warn("Configured bot username differs from the bot's account",
				"configured", cfg.Telegram.BotUsername, "actual", cfg.Telegram.BotInfo.Username)
		}

		if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
			log.Error("Failed to register Telegram handlers", "error", err)
			return err
		}

		routes.Telegram = tg.WebhookHandler()
		routes.TelegramURI = cfg.Telegram.WebhookURI
		worker = tg
	}

	if cfg.Twitter.Enabled {
		routes.Twitter = twitter.NewWebhookHandler(cfg.Twitter.ConsumerSecret, cfg.Twitter.BotID, pipeline, registrar, log)
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:      log,
		Store:       store,
		Queue:       queue,
		BacklogWarn: cfg.Scheduler.BacklogWarn,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return err
	}

	srv := server.New(cfg.Server, server.NewRouter(routes))
	app := bot.NewBot(log, srv, cfg.Server.ShutdownTimeout, worker, sched)

	log.Info("Starting bot", "telegram", cfg.Telegram.Enabled, "twitter", cfg.Twitter.Enabled)
	if err := app.Run(ctx); err != nil {
		log.Error("Bot stopped due to error", "error", err)
		return err
	}
	log.Info("Bot stopped gracefully")
	return nil
}
