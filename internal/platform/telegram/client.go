package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	apperrors "erp-telegram-bot/internal/common/errors"
	"erp-telegram-bot/internal/presentation"
)

const (
	// SecretHeader carries the webhook secret set with SetWebhook.
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	pollTimeout = 60
	maxRetries  = 1
)

type Config struct {
	Token       string
	Debug       bool
	APIEndpoint string
}

type Option func(*Client)

func WithHTTPClient(h tgbotapi.HTTPClient) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client wraps the Bot API. Safe for concurrent use.
type Client struct {
	bot        *tgbotapi.BotAPI
	httpClient tgbotapi.HTTPClient
	logger     zerolog.Logger
	retryUnit  time.Duration
}

// New connects to the Bot API and verifies the token with getMe.
func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 70 * time.Second},
		logger:     zerolog.Nop(),
		retryUnit:  time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, c.httpClient)
	if err != nil {
		return nil, apperrors.NewTelegramAPIError("getMe", err)
	}
	bot.Debug = cfg.Debug
	c.bot = bot
	c.logger = c.logger.With().Str("component", "telegram").Str("bot", bot.Self.UserName).Logger()
	return c, nil
}

func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// Send delivers one message. A flood-control answer is retried once after
// the delay the Bot API asks for.
func (c *Client) Send(ctx context.Context, chatID int64, reply presentation.Reply) error {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = reply.ParseMode
	msg.DisableWebPagePreview = true
	if reply.Markup != nil {
		msg.ReplyMarkup = reply.Markup
	}

	return c.do(ctx, "sendMessage", func() error {
		_, err := c.bot.Send(msg)
		return err
	})
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return c.do(ctx, "answerCallbackQuery", func() error {
		_, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text))
		return err
	})
}

// SetCommands publishes the bot command menu.
func (c *Client) SetCommands(ctx context.Context, commands []tgbotapi.BotCommand) error {
	return c.do(ctx, "setMyCommands", func() error {
		_, err := c.bot.Request(tgbotapi.NewSetMyCommands(commands...))
		return err
	})
}

// SetWebhook registers url for update delivery. secret, when set, is echoed
// back by Telegram in SecretHeader.
func (c *Client) SetWebhook(ctx context.Context, url, secret string, dropPending bool) error {
	params := tgbotapi.Params{}
	params["url"] = url
	params.AddNonEmpty("secret_token", secret)
	params.AddBool("drop_pending_updates", dropPending)
	if err := params.AddInterface("allowed_updates", []string{"message", "callback_query"}); err != nil {
		return apperrors.NewTelegramAPIError("setWebhook", err)
	}

	return c.do(ctx, "setWebhook", func() error {
		_, err := c.bot.MakeRequest("setWebhook", params)
		return err
	})
}

func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return c.do(ctx, "deleteWebhook", func() error {
		_, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending})
		return err
	})
}

// Updates starts long polling. The channel is closed after ctx is done.
func (c *Client) Updates(ctx context.Context) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		c.bot.StopReceivingUpdates()
	}()
	return updates
}

func (c *Client) do(ctx context.Context, method string, call func() error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return apperrors.NewTelegramAPIError(method, err)
		}

		err := call()
		if err == nil {
			return nil
		}

		var apiErr *tgbotapi.Error
		if attempt < maxRetries && errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			wait := time.Duration(apiErr.RetryAfter) * c.retryUnit
			c.logger.Warn().Str("method", method).Dur("retry_after", wait).Msg("Flood control, retrying")
			select {
			case <-ctx.Done():
				return apperrors.NewTelegramAPIError(method, ctx.Err())
			case <-time.After(wait):
			}
			continue
		}

		c.logger.Error().Err(err).Str("method", method).Msg("Bot API call failed")
		return apperrors.NewTelegramAPIError(method, fmt.Errorf("%s: %w", method, err))
	}
}
