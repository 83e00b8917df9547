package stream

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"erp-telegram-bot/internal/features/payment/models"
	platformredis "erp-telegram-bot/internal/platform/redis"
)

const (
	defaultBlock = 5 * time.Second
	errorBackoff = time.Second
)

type Relayer interface {
	Deliver(ctx context.Context, ev models.PaymentEvent) (bool, error)
}

type Config struct {
	Stream   string
	Group    string
	Consumer string
	Block    time.Duration
	Count    int64
}

// Worker consumes payment events that the ERP publishes to a Redis stream
// and relays them like the HTTP webhook does.
type Worker struct {
	rdb    *platformredis.Client
	relay  Relayer
	cfg    Config
	logger zerolog.Logger
}

func NewWorker(rdb *platformredis.Client, relay Relayer, cfg Config, logger zerolog.Logger) *Worker {
	if cfg.Consumer == "" {
		cfg.Consumer = "consumer-" + uuid.NewString()[:8]
	}
	if cfg.Block <= 0 {
		cfg.Block = defaultBlock
	}
	if cfg.Count <= 0 {
		cfg.Count = 10
	}
	return &Worker{
		rdb:    rdb,
		relay:  relay,
		cfg:    cfg,
		logger: logger.With().Str("component", "payment_stream").Str("stream", cfg.Stream).Logger(),
	}
}

// Start reads the stream until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, w.cfg.Stream, w.cfg.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		w.logger.Error().Err(err).Msg("Error creating consumer group")
	}

	w.logger.Info().Str("group", w.cfg.Group).Str("consumer", w.cfg.Consumer).Msg("Starting payment stream worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Stopping payment stream worker")
			return
		default:
		}

		entries, err := w.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			Streams:  []string{w.cfg.Stream, ">"},
			Count:    w.cfg.Count,
			Block:    w.cfg.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) || ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading from stream")
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
			continue
		}

		for _, stream := range entries {
			for _, msg := range stream.Messages {
				w.processMessage(ctx, msg)
				if err := w.rdb.XAck(ctx, w.cfg.Stream, w.cfg.Group, msg.ID).Err(); err != nil {
					w.logger.Warn().Err(err).Str("entry", msg.ID).Msg("Ack failed")
				}
			}
		}
	}
}

func (w *Worker) processMessage(ctx context.Context, msg goredis.XMessage) {
	ev, err := models.FromStreamValues(msg.Values)
	if err != nil {
		w.logger.Warn().Err(err).Str("entry", msg.ID).Msg("Dropping malformed payment event")
		return
	}

	delivered, err := w.relay.Deliver(ctx, ev)
	if err != nil {
		w.logger.Error().Err(err).Str("entry", msg.ID).Str("payment_id", ev.PaymentID).Msg("Payment event not relayed")
		return
	}
	w.logger.Debug().Str("entry", msg.ID).Str("payment_id", ev.PaymentID).Bool("delivered", delivered).Msg("Payment event processed")
}
