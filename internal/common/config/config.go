package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"erp-telegram-bot"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"*"`
		// Mini App GET responses are cached per user, 0 disables
		CacheTTL time.Duration `env:"API_CACHE_TTL" envDefault:"30s"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken      string        `env:"BOT_TOKEN,required,notEmpty"`
		Debug         bool          `env:"TELEGRAM_DEBUG" envDefault:"false"`
		Mode          string        `env:"TELEGRAM_MODE" envDefault:"polling"`
		WebhookURL    string        `env:"WEBHOOK_URL"`
		WebhookPath   string        `env:"WEBHOOK_PATH" envDefault:"/telegram/webhook"`
		WebhookSecret string        `env:"WEBHOOK_SECRET"`
		InitDataTTL   time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
	}

	ERP struct {
		BaseURL     string        `env:"ERP_BASE_URL,required,notEmpty"`
		APIKey      string        `env:"ERP_API_KEY"`
		APISecret   string        `env:"ERP_API_SECRET"`
		Timeout     time.Duration `env:"ERP_TIMEOUT" envDefault:"30s"`
		MaxAttempts int           `env:"ERP_MAX_ATTEMPTS" envDefault:"3"`
		BackoffBase time.Duration `env:"ERP_BACKOFF_BASE" envDefault:"2s"`
		BackoffMax  time.Duration `env:"ERP_BACKOFF_MAX" envDefault:"10s"`
	}

	Support struct {
		OperatorName  string        `env:"OPERATOR_NAME" envDefault:"Operator"`
		OperatorPhone string        `env:"OPERATOR_PHONE" envDefault:""`
		CacheTTL      time.Duration `env:"SUPPORT_CACHE_TTL" envDefault:"1h"`
	}

	Session struct {
		// 0 keeps sessions until explicitly cleared
		TTL time.Duration `env:"SESSION_TTL" envDefault:"0"`
	}

	Reminders struct {
		Enabled       bool          `env:"REMINDERS_ENABLED" envDefault:"true"`
		DailyAt       string        `env:"REMINDER_DAILY_AT" envDefault:"09:00"`
		Timezone      string        `env:"REMINDER_TIMEZONE" envDefault:"Asia/Tashkent"`
		SweepInterval time.Duration `env:"REMINDER_SWEEP_INTERVAL" envDefault:"1h"`
		SendRate      float64       `env:"REMINDER_SEND_RATE" envDefault:"25"`
		PageSize      int           `env:"REMINDER_PAGE_SIZE" envDefault:"500"`
		LedgerTTL     time.Duration `env:"REMINDER_LEDGER_TTL" envDefault:"192h"`
	}

	Payments struct {
		WebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
		StreamEnabled bool   `env:"PAYMENT_STREAM_ENABLED" envDefault:"false"`
		Stream        string `env:"PAYMENT_STREAM" envDefault:"erp:payments"`
		StreamGroup   string `env:"PAYMENT_STREAM_GROUP" envDefault:"erp-telegram-bot"`
	}
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// .env is optional, production sets variables directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required in webhook mode")
		}
	default:
		return fmt.Errorf("unknown TELEGRAM_MODE %q", c.Telegram.Mode)
	}
	if c.ERP.MaxAttempts < 1 {
		return fmt.Errorf("ERP_MAX_ATTEMPTS must be positive")
	}
	if _, _, err := c.DailyAt(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// DailyAt returns hour and minute of REMINDER_DAILY_AT.
func (c *Config) DailyAt() (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.Reminders.DailyAt))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid REMINDER_DAILY_AT %q: %w", c.Reminders.DailyAt, err)
	}
	return t.Hour(), t.Minute(), nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", c.Reminders.Timezone, err)
	}
	return loc, nil
}

// WebhookEndpoint is the public URL Telegram posts updates to.
func (c *Config) WebhookEndpoint() string {
	return strings.TrimRight(c.Telegram.WebhookURL, "/") + c.Telegram.WebhookPath
}
