package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-telegram-bot/internal/features/payment/models"
	platformredis "erp-telegram-bot/internal/platform/redis"
)

type recordingRelay struct {
	mu     sync.Mutex
	events []models.PaymentEvent
}

func (r *recordingRelay) Deliver(ctx context.Context, ev models.PaymentEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return ev.PlatformID.Valid(), nil
}

func (r *recordingRelay) seen() []models.PaymentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PaymentEvent(nil), r.events...)
}

func TestWorker_RelaysAndAcknowledges(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rdb := platformredis.Wrap(client)

	relay := &recordingRelay{}
	w := NewWorker(rdb, relay, Config{Stream: "erp:payments", Group: "bot", Block: 20 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return mr.Exists("erp:payments") }, time.Second, 5*time.Millisecond)

	bg := context.Background()
	require.NoError(t, client.XAdd(bg, &goredis.XAddArgs{Stream: "erp:payments", Values: map[string]interface{}{
		"payment_id": "ACC-PAY-1", "contract_id": "SO-1", "amount": "1000", "platform_id": "555",
	}}).Err())
	require.NoError(t, client.XAdd(bg, &goredis.XAddArgs{Stream: "erp:payments", Values: map[string]interface{}{
		"amount": "not-a-number",
	}}).Err())

	require.Eventually(t, func() bool {
		pending, err := client.XPending(bg, "erp:payments", "bot").Result()
		return err == nil && pending.Count == 0 && len(relay.seen()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "ACC-PAY-1", relay.seen()[0].PaymentID)
}
