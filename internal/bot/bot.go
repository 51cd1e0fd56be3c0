// Package bot runs the tip bot: the webhook HTTP server, the Telegram update workers and
// the task scheduler, with a shared lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// UpdateWorker processes Telegram updates received through the webhook until ctx is done.
// *bot.Bot from go-telegram/bot satisfies it.
type UpdateWorker interface {
	StartWebhook(ctx context.Context)
}

// Bot owns the long-running components.
type Bot struct {
	logger          *slog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
	telegram        UpdateWorker
	scheduler       *Scheduler
}

// NewBot creates the orchestrator. telegram may be nil when the platform is disabled.
func NewBot(logger *slog.Logger, server *http.Server, shutdownTimeout time.Duration, telegram UpdateWorker, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:          logger.With("component", "bot_orchestrator"),
		server:          server,
		shutdownTimeout: shutdownTimeout,
		telegram:        telegram,
		scheduler:       scheduler,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting HTTP server", "addr", b.server.Addr)
		if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), b.shutdownTimeout)
		defer cancel()
		if err := b.server.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error shutting down HTTP server", "error", err)
		}
		return nil
	})

	if b.telegram != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram update workers")
			b.telegram.StartWebhook(gCtx)
			b.logger.Info("Telegram update workers stopped")
			if gCtx.Err() == nil {
				return fmt.Errorf("telegram update workers stopped unexpectedly")
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		b.logger.Info("Stopping scheduler")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}
	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}
