// Package bot implements the core bot lifecycle: transport startup
// (long polling or webhook), scheduled task management, and graceful
// shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/wenjia-li/digestbot/internal/config"
	"github.com/wenjia-li/digestbot/internal/database"
)

// Bot represents the main bot application and manages its components'
// lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	db        *sqlx.DB
	store     database.Store
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates a new instance of the bot with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.Store,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		db:        db,
		store:     store,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts the bot and all its components, handling graceful shutdown on
// context cancellation. When a webhook URL is configured the bot serves
// updates over HTTP; otherwise it long-polls.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	if b.cfg.Telegram.WebhookURL != "" {
		if err := b.startWebhook(gCtx, g); err != nil {
			return err
		}
	} else {
		if err := b.startPolling(gCtx, g); err != nil {
			return err
		}
	}

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

func (b *Bot) startPolling(gCtx context.Context, g *errgroup.Group) error {
	// A stale webhook blocks getUpdates.
	if _, err := b.tgBot.DeleteWebhook(gCtx, &tgbot.DeleteWebhookParams{DropPendingUpdates: false}); err != nil {
		b.logger.Warn("Failed to delete webhook before polling", "error", err)
	}

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener (long polling)...")

		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})
	return nil
}

func (b *Bot) startWebhook(gCtx context.Context, g *errgroup.Group) error {
	ok, err := b.tgBot.SetWebhook(gCtx, &tgbot.SetWebhookParams{
		URL:         b.cfg.Telegram.WebhookURL,
		SecretToken: b.cfg.Telegram.WebhookSecret,
	})
	if err != nil || !ok {
		return fmt.Errorf("failed to set webhook %q: %w", b.cfg.Telegram.WebhookURL, err)
	}
	b.logger.Info("Webhook registered", "url", b.cfg.Telegram.WebhookURL)

	srv := &http.Server{
		Addr:              b.cfg.Telegram.ListenAddr,
		Handler:           b.tgBot.WebhookHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot webhook processor...")
		b.tgBot.StartWebhook(gCtx)
		b.logger.Info("Telegram bot webhook processor stopped.")
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting webhook HTTP server...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping webhook server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error shutting down webhook server", "error", err)
		}
		return nil
	})

	return nil
}
