package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"erp-telegram-bot/internal/app"
	"erp-telegram-bot/internal/common/config"
	applog "erp-telegram-bot/internal/common/logger"
	"erp-telegram-bot/internal/features/conversation"
	httpx "erp-telegram-bot/internal/http"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot: HTTP server, update intake and reminder scheduler",
		Long: `Run the bot.

TELEGRAM_MODE=webhook registers WEBHOOK_URL+WEBHOOK_PATH with Telegram on
start and removes it on shutdown. TELEGRAM_MODE=polling reads updates with
long polling instead. The HTTP server runs in both modes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), st.cfg)
		},
	}
}

func pollCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Same as serve with TELEGRAM_MODE=polling",
		RunE: func(cmd *cobra.Command, args []string) error {
			st.cfg.Telegram.Mode = config.ModePolling
			return runServe(cmd.Context(), st.cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	logger := applog.Component("serve")
	logger.Info().
		Str("version", Version).
		Str("mode", cfg.Telegram.Mode).
		Bool("debug", cfg.Debug).
		Msg("Starting ERP Telegram bot")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.NewContainer(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close container")
		}
	}()
	logger.Info().Str("bot", c.Telegram.Username()).Msg("Connected to Telegram")

	if err := c.Telegram.SetCommands(ctx, c.Renderer.Commands()); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish bot commands")
	}

	server := httpx.NewServer(cfg.Server.Port, c.HTTPHandler())
	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var wg sync.WaitGroup
	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		if err := c.Telegram.SetWebhook(ctx, cfg.WebhookEndpoint(), cfg.Telegram.WebhookSecret, false); err != nil {
			stop()
			shutdown(c, server, &wg, cfg, logger)
			return err
		}
		logger.Info().Str("url", cfg.WebhookEndpoint()).Msg("Webhook registered")
	default:
		// getUpdates is refused while a webhook is set
		if err := c.Telegram.DeleteWebhook(ctx, false); err != nil {
			logger.Warn().Err(err).Msg("Failed to delete webhook before polling")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			poll(ctx, c, logger)
		}()
	}

	if cfg.Reminders.Enabled {
		c.Scheduler.Start()
	}
	if c.PaymentStream != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.PaymentStream.Start(ctx)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	case runErr = <-serverErr:
		logger.Error().Err(runErr).Msg("HTTP server failed")
	}
	stop()

	shutdown(c, server, &wg, cfg, logger)
	return runErr
}

// poll feeds long-polled updates into the dispatcher until ctx is done.
func poll(ctx context.Context, c *app.Container, logger zerolog.Logger) {
	logger.Info().Msg("Long polling started")
	for update := range c.Telegram.Updates(ctx) {
		ev, ok := conversation.EventFromUpdate(update)
		if !ok {
			continue
		}
		if !c.Dispatcher.Submit(ev) {
			return
		}
	}
	logger.Info().Msg("Long polling stopped")
}

func shutdown(c *app.Container, server *http.Server, wg *sync.WaitGroup, cfg *config.Config, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if cfg.Telegram.Mode == config.ModeWebhook {
		if err := c.Telegram.DeleteWebhook(ctx, false); err != nil {
			logger.Warn().Err(err).Msg("Failed to delete webhook")
		}
	}
	if cfg.Reminders.Enabled {
		c.Scheduler.Stop()
	}
	if !waitGroup(ctx, wg) {
		logger.Warn().Msg("Intake goroutines still running at shutdown deadline")
	}
	if err := c.Dispatcher.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("Dispatcher did not drain in time")
	}
	logger.Info().Msg("Server exited")
}

// waitGroup waits for wg until ctx is done and reports whether it finished.
func waitGroup(ctx context.Context, wg *sync.WaitGroup) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
