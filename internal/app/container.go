// Package app wires the bot's components together. Every dependency is
// built here and handed down explicitly.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"erp-telegram-bot/internal/common/cache"
	"erp-telegram-bot/internal/common/config"
	authservice "erp-telegram-bot/internal/features/auth/service"
	"erp-telegram-bot/internal/features/conversation"
	customerhttp "erp-telegram-bot/internal/features/customer/delivery/http"
	paymenthttp "erp-telegram-bot/internal/features/payment/delivery/http"
	"erp-telegram-bot/internal/features/payment/delivery/stream"
	paymentservice "erp-telegram-bot/internal/features/payment/service"
	reminderrepo "erp-telegram-bot/internal/features/reminder/repository"
	reminderredis "erp-telegram-bot/internal/features/reminder/repository/redis"
	reminderservice "erp-telegram-bot/internal/features/reminder/service"
	sessionrepo "erp-telegram-bot/internal/features/session/repository"
	sessionredis "erp-telegram-bot/internal/features/session/repository/redis"
	supportservice "erp-telegram-bot/internal/features/support/service"
	httpx "erp-telegram-bot/internal/http"
	"erp-telegram-bot/internal/platform/erp"
	platformredis "erp-telegram-bot/internal/platform/redis"
	"erp-telegram-bot/internal/platform/telegram"
	"erp-telegram-bot/internal/presentation"
)

const cachePrefix = "erpbot"

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Logger zerolog.Logger

	// Infrastructure
	Redis    *platformredis.Client
	ERP      *erp.Client
	Telegram *telegram.Client
	Renderer *presentation.Renderer
	Cache    *cache.CacheService

	// Repositories
	Sessions sessionrepo.SessionRepository
	Ledger   reminderrepo.Ledger

	// Services
	Auth       *authservice.Machine
	Support    *supportservice.Provider
	Router     *conversation.Router
	Dispatcher *conversation.Dispatcher
	Scheduler  *reminderservice.Scheduler
	Relay      *paymentservice.Relay

	// PaymentStream is nil unless PAYMENT_STREAM_ENABLED is set.
	PaymentStream *stream.Worker
}

// NewContainer connects to Redis, the ERP and the Bot API and builds every
// component on top of them.
func NewContainer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initInfrastructure(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.initRepositories()
	if err := c.initServices(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewTelegram builds the Bot API client alone, for commands that never
// touch Redis or the ERP.
func NewTelegram(cfg *config.Config, logger zerolog.Logger) (*telegram.Client, error) {
	client, err := telegram.New(telegram.Config{
		Token: cfg.Telegram.BotToken,
		Debug: cfg.Telegram.Debug,
	}, telegram.WithLogger(logger.With().Str("component", "telegram").Logger()))
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return client, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	rdb, err := platformredis.Open(ctx, platformredis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	c.Redis = rdb
	c.Cache = cache.NewCacheService(rdb, cachePrefix, c.Logger)

	c.ERP = erp.New(erp.Config{
		BaseURL:     cfg.ERP.BaseURL,
		APIKey:      cfg.ERP.APIKey,
		APISecret:   cfg.ERP.APISecret,
		Timeout:     cfg.ERP.Timeout,
		MaxAttempts: cfg.ERP.MaxAttempts,
		BackoffBase: cfg.ERP.BackoffBase,
		BackoffMax:  cfg.ERP.BackoffMax,
	}, erp.WithLogger(c.Logger.With().Str("component", "erp").Logger()))

	tg, err := NewTelegram(cfg, c.Logger)
	if err != nil {
		return err
	}
	c.Telegram = tg

	renderer, err := presentation.New()
	if err != nil {
		return fmt.Errorf("presentation: %w", err)
	}
	c.Renderer = renderer
	return nil
}

func (c *Container) initRepositories() {
	c.Sessions = sessionredis.NewSessionRepository(c.Redis, c.Config.Session.TTL)
	c.Ledger = reminderredis.NewLedger(c.Redis, c.Config.Reminders.LedgerTTL)
}

func (c *Container) initServices() error {
	cfg := c.Config

	c.Auth = authservice.NewMachine(c.ERP, c.Sessions, c.Renderer.IsMenuText, c.Logger)
	c.Support = supportservice.NewProvider(c.ERP, c.Cache, cfg.Support.CacheTTL, erp.SupportContact{
		Name:  cfg.Support.OperatorName,
		Phone: cfg.Support.OperatorPhone,
	}, c.Logger)

	c.Router = conversation.NewRouter(c.Auth, c.ERP, c.Telegram, c.Renderer, c.Support, c.Logger)
	c.Dispatcher = conversation.NewDispatcher(c.Router, conversation.DispatcherOptions{}, c.Logger)

	hour, minute, err := cfg.DailyAt()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	limiter := reminderservice.NewLimiter(cfg.Reminders.SendRate)
	daily := reminderservice.NewDailySweep(c.ERP, c.Telegram, c.Renderer, c.Support, c.Ledger, limiter, c.Logger)
	hourly := reminderservice.NewHourlySweep(c.ERP, c.Telegram, c.Renderer, c.Ledger, limiter, cfg.Reminders.PageSize, loc, c.Logger)
	c.Scheduler = reminderservice.NewScheduler(daily, hourly, reminderservice.SchedulerConfig{
		Location:      loc,
		DailyHour:     hour,
		DailyMinute:   minute,
		SweepInterval: cfg.Reminders.SweepInterval,
	}, c.Logger)

	c.Relay = paymentservice.NewRelay(c.Telegram, c.Renderer, c.Logger)
	if cfg.Payments.StreamEnabled {
		c.PaymentStream = stream.NewWorker(c.Redis, c.Relay, stream.Config{
			Stream: cfg.Payments.Stream,
			Group:  cfg.Payments.StreamGroup,
		}, c.Logger)
	}
	return nil
}

// HTTPHandler assembles the gin engine. Telegram webhook intake is mounted
// only in webhook mode.
func (c *Container) HTTPHandler() *gin.Engine {
	deps := httpx.Deps{
		Config:    c.Config,
		Redis:     c.Redis,
		Payments:  paymenthttp.NewPaymentHandler(c.Relay, c.Config.Payments.WebhookSecret, c.Logger),
		Customers: customerhttp.NewCustomerHandler(c.ERP, c.Logger),
		Checks: []httpx.NamedCheck{
			{Name: "redis", Check: c.Redis.HealthCheck},
			{Name: "erp", Check: c.ERP.Ping},
		},
		Logger: c.Logger,
	}
	if c.Config.Telegram.Mode == config.ModeWebhook {
		deps.Updates = c.Dispatcher
	}
	return httpx.NewRouter(deps)
}

func (c *Container) Close() error {
	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
