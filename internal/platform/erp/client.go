package erp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	apperrors "erp-telegram-bot/internal/common/errors"
)

const (
	methodPrefix = "/api/method/cash_flow_app.cash_flow_management.api.telegram_bot_api."

	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 2 * time.Second
	defaultBackoffMax  = 10 * time.Second

	maxBodySize  = 4 << 20
	maxErrorBody = 512
)

type Config struct {
	BaseURL     string
	APIKey      string
	APISecret   string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Client talks to the ERP remote procedure API. A single instance owns
// a pooled transport and is shared by handlers and background sweeps.
type Client struct {
	cfg        Config
	baseURL    string
	auth       string
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = defaultBackoffMax
	}

	c := &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    fmt.Sprintf("token %s:%s", cfg.APIKey, cfg.APISecret),
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET with the retry policy and returns the raw body.
// Only transport faults are retried; a non-2xx answer is returned at once.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.BackoffBase
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = c.cfg.BackoffMax
	policy.MaxElapsedTime = 0

	var (
		body     []byte
		attempts int
	)
	operation := func() error {
		attempts++
		data, err := c.once(ctx, endpoint, query)
		if err == nil {
			body = data
			return nil
		}
		if !isTransient(ctx, err) {
			return backoff.Permanent(err)
		}
		c.logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Int("attempt", attempts).
			Int("max_attempts", c.cfg.MaxAttempts).
			Msg("ERP request failed")
		return err
	}

	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxAttempts-1)), ctx)
	if err := backoff.Retry(operation, retry); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		c.logger.Error().Err(err).Str("endpoint", endpoint).Int("attempts", attempts).Msg("ERP unavailable")
		return nil, apperrors.NewERPUnavailableError(endpoint, attempts, err)
	}
	return body, nil
}

func (c *Client) once(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create ERP request")
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, apperrors.NewERPStatusError(endpoint, resp.StatusCode, snippet)
	}
	return body, nil
}

// isTransient reports whether err is a timeout or network fault worth
// another attempt. Cancellation by the caller is never retried.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Ping checks that the ERP answers at all; used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/api/method/ping", nil)
	return err
}
