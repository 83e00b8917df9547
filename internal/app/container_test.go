package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-telegram-bot/internal/common/config"
	authservice "erp-telegram-bot/internal/features/auth/service"
	"erp-telegram-bot/internal/features/conversation"
	customerhttp "erp-telegram-bot/internal/features/customer/delivery/http"
	paymentservice "erp-telegram-bot/internal/features/payment/service"
	reminderservice "erp-telegram-bot/internal/features/reminder/service"
	supportservice "erp-telegram-bot/internal/features/support/service"
	"erp-telegram-bot/internal/mocks"
	"erp-telegram-bot/internal/platform/erp"
	platformredis "erp-telegram-bot/internal/platform/redis"
	"erp-telegram-bot/internal/platform/telegram"
	"erp-telegram-bot/internal/presentation"
)

var (
	_ authservice.Gateway       = (*erp.Client)(nil)
	_ conversation.Gateway      = (*erp.Client)(nil)
	_ customerhttp.Gateway      = (*erp.Client)(nil)
	_ reminderservice.Gateway   = (*erp.Client)(nil)
	_ supportservice.Gateway    = (*erp.Client)(nil)
	_ conversation.Messenger    = (*telegram.Client)(nil)
	_ reminderservice.Messenger = (*telegram.Client)(nil)
	_ paymentservice.Messenger  = (*telegram.Client)(nil)
)

type noopHandler struct{}

func (noopHandler) Dispatch(ctx context.Context, ev conversation.Event) {}

func testContainer(t *testing.T, mode string) *Container {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	erpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"pong"}`))
	}))
	t.Cleanup(erpSrv.Close)

	cfg := &config.Config{ServiceName: "test"}
	cfg.Server.Origin = "*"
	cfg.Telegram.BotToken = "123:abc"
	cfg.Telegram.Mode = mode
	cfg.Telegram.WebhookPath = "/telegram/webhook"

	return &Container{
		Config:     cfg,
		Logger:     zerolog.Nop(),
		Redis:      platformredis.Wrap(client),
		ERP:        erp.New(erp.Config{BaseURL: erpSrv.URL, Timeout: time.Second, MaxAttempts: 1}),
		Relay:      paymentservice.NewRelay(mocks.NewMessenger(), presentation.MustNew(), zerolog.Nop()),
		Dispatcher: conversation.NewDispatcher(noopHandler{}, conversation.DispatcherOptions{}, zerolog.Nop()),
	}
}

func request(h http.Handler, method, target, body string) int {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

const update = `{"update_id":1,"message":{"message_id":1,"date":1,"from":{"id":7,"first_name":"A"},"chat":{"id":7,"type":"private"},"text":"hi"}}`

func TestHTTPHandler_WebhookOnlyInWebhookMode(t *testing.T) {
	polling := testContainer(t, config.ModePolling).HTTPHandler()
	assert.Equal(t, http.StatusNotFound, request(polling, http.MethodPost, "/telegram/webhook", update))

	c := testContainer(t, config.ModeWebhook)
	t.Cleanup(func() { _ = c.Dispatcher.Stop(context.Background()) })
	assert.Equal(t, http.StatusOK, request(c.HTTPHandler(), http.MethodPost, "/telegram/webhook", update))
}

func TestHTTPHandler_RoutesAndReadiness(t *testing.T) {
	h := testContainer(t, config.ModePolling).HTTPHandler()

	assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/ready", ""))
	assert.Equal(t, http.StatusUnauthorized, request(h, http.MethodGet, "/api/v1/me", ""))
	assert.Equal(t, http.StatusOK, request(h, http.MethodPost, "/webhook/payment-entry",
		`{"payment_id":"ACC-PAY-1","contract_id":"SO-1","amount":100}`))
}

func TestClose(t *testing.T) {
	c := testContainer(t, config.ModePolling)
	require.NoError(t, c.Close())
	assert.NoError(t, (&Container{}).Close())
}
