package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-telegram-bot/internal/common/config"
	"erp-telegram-bot/internal/common/middleware"
	"erp-telegram-bot/internal/features/conversation"
	customerhttp "erp-telegram-bot/internal/features/customer/delivery/http"
	mw "erp-telegram-bot/internal/http/middleware"
	"erp-telegram-bot/internal/mocks"
	"erp-telegram-bot/internal/platform/erp"
	rplatform "erp-telegram-bot/internal/platform/redis"
	"erp-telegram-bot/internal/platform/telegram"
)

const botToken = "123456:TEST-TOKEN"

var _ UpdateSink = (*conversation.Dispatcher)(nil)

type recordingSink struct {
	mu     sync.Mutex
	events []conversation.Event
	reject bool
}

func (s *recordingSink) Submit(ev conversation.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func (s *recordingSink) received() []conversation.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversation.Event(nil), s.events...)
}

func testConfig() *config.Config {
	cfg := &config.Config{ServiceName: "erp-telegram-bot-test"}
	cfg.Server.Origin = "*"
	cfg.Server.CacheTTL = time.Minute
	cfg.Telegram.BotToken = botToken
	cfg.Telegram.WebhookPath = "/telegram/webhook"
	cfg.Telegram.InitDataTTL = time.Hour
	return cfg
}

func serve(r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const startUpdate = `{"update_id":10,"message":{"message_id":1,"date":1760000000,
	"from":{"id":555,"is_bot":false,"first_name":"Ali"},
	"chat":{"id":555,"type":"private"},
	"text":"/start","entities":[{"type":"bot_command","offset":0,"length":6}]}}`

func TestTelegramWebhook_SubmitsEvent(t *testing.T) {
	sink := &recordingSink{}
	r := NewRouter(Deps{Config: testConfig(), Updates: sink, Logger: zerolog.Nop()})

	w := serve(r, http.MethodPost, "/telegram/webhook", startUpdate, nil)

	require.Equal(t, http.StatusOK, w.Code)
	events := sink.received()
	require.Len(t, events, 1)
	assert.Equal(t, int64(555), events[0].UserID)
	assert.Equal(t, "start", events[0].Command)
}

func TestTelegramWebhook_Secret(t *testing.T) {
	cfg := testConfig()
	cfg.Telegram.WebhookSecret = "s3cret"
	sink := &recordingSink{}
	r := NewRouter(Deps{Config: cfg, Updates: sink, Logger: zerolog.Nop()})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/telegram/webhook", startUpdate, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/telegram/webhook", startUpdate,
		map[string]string{telegram.SecretHeader: "wrong"}).Code)
	assert.Empty(t, sink.received())

	w := serve(r, http.MethodPost, "/telegram/webhook", startUpdate, map[string]string{telegram.SecretHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, sink.received(), 1)
}

func TestTelegramWebhook_UpdateWithoutSenderIsDropped(t *testing.T) {
	sink := &recordingSink{}
	r := NewRouter(Deps{Config: testConfig(), Updates: sink, Logger: zerolog.Nop()})

	w := serve(r, http.MethodPost, "/telegram/webhook", `{"update_id":11,"channel_post":{"message_id":2,"date":1,"chat":{"id":-100,"type":"channel"},"text":"hi"}}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sink.received())
}

func TestTelegramWebhook_MalformedAndRejected(t *testing.T) {
	sink := &recordingSink{reject: true}
	r := NewRouter(Deps{Config: testConfig(), Updates: sink, Logger: zerolog.Nop()})

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/telegram/webhook", `{`, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/telegram/webhook", startUpdate, nil).Code)
}

func TestProbes(t *testing.T) {
	var redisDown bool
	checks := []NamedCheck{
		{Name: "redis", Check: func(ctx context.Context) error {
			if redisDown {
				return errors.New("connection refused")
			}
			return nil
		}},
		{Name: "erp", Check: func(ctx context.Context) error { return nil }},
	}
	r := NewRouter(Deps{Config: testConfig(), Checks: checks, Logger: zerolog.Nop()})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "", nil).Code)

	redisDown = true
	w := serve(r, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis unavailable")
}

func TestMiniAppAPI_CachesPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gateway := mocks.NewERPGateway()
	gateway.LookupByPlatformIDFunc = func(ctx context.Context, platformID int64) (*erp.Result[erp.CustomerLookup], error) {
		return &erp.Result[erp.CustomerLookup]{Success: true, Data: erp.CustomerLookup{
			Customer: &erp.Customer{ID: "CUST-01", Name: "Ali"},
		}}, nil
	}
	r := NewRouter(Deps{
		Config:    testConfig(),
		Redis:     rplatform.Wrap(client),
		Customers: customerhttp.NewCustomerHandler(gateway, zerolog.Nop()),
		Logger:    zerolog.Nop(),
	})

	headers := func(userID int64) map[string]string {
		return map[string]string{middleware.InitDataHeader: mocks.InitData(botToken, userID, "Ali", time.Now())}
	}

	first := serve(r, http.MethodGet, "/api/v1/me", "", headers(555))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(mw.CacheHeader))

	second := serve(r, http.MethodGet, "/api/v1/me", "", headers(555))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get(mw.CacheHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, gateway.Calls("LookupByPlatformID"))

	other := serve(r, http.MethodGet, "/api/v1/me", "", headers(777))
	assert.Equal(t, "MISS", other.Header().Get(mw.CacheHeader))
	assert.Equal(t, 2, gateway.Calls("LookupByPlatformID"))

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/me", "", nil).Code)
}

func TestMiniAppAPI_ErrorsAreNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gateway := mocks.NewERPGateway()
	r := NewRouter(Deps{
		Config:    testConfig(),
		Redis:     rplatform.Wrap(client),
		Customers: customerhttp.NewCustomerHandler(gateway, zerolog.Nop()),
		Logger:    zerolog.Nop(),
	})
	h := map[string]string{middleware.InitDataHeader: mocks.InitData(botToken, 555, "Ali", time.Now())}

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/me", "", h).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/me", "", h).Code)
	assert.Equal(t, 2, gateway.Calls("LookupByPlatformID"))
}

func TestSwaggerDoc(t *testing.T) {
	r := NewRouter(Deps{Config: testConfig(), Logger: zerolog.Nop()})

	w := serve(r, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/webhook/payment-entry")
}
