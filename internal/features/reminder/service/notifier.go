package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"erp-telegram-bot/internal/features/reminder/models"
	"erp-telegram-bot/internal/features/reminder/repository"
	"erp-telegram-bot/internal/presentation"
)

type delivery int

const (
	deliverySent delivery = iota
	deliverySkipped
	deliveryFailed
)

// notifier sends one notice through the ledger and the shared send limiter.
type notifier struct {
	ledger    repository.Ledger
	limiter   *rate.Limiter
	messenger Messenger
}

// NewLimiter caps sends at perSecond messages per second; zero or less means
// no cap.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (n *notifier) deliver(ctx context.Context, log zerolog.Logger, runID string, key models.NoticeKey, chatID int64, reply presentation.Reply) delivery {
	claimed := true
	if n.ledger != nil {
		won, err := n.ledger.Claim(ctx, key, runID)
		if err != nil {
			log.Warn().Err(err).Str("notice", key.String()).Msg("Ledger unavailable, sending without dedup")
		} else {
			claimed = won
			if !won {
				return deliverySkipped
			}
		}
	}

	release := func() {
		if n.ledger == nil || !claimed {
			return
		}
		if err := n.ledger.Release(context.WithoutCancel(ctx), key); err != nil {
			log.Warn().Err(err).Str("notice", key.String()).Msg("Ledger release failed")
		}
	}

	if err := n.limiter.Wait(ctx); err != nil {
		release()
		log.Warn().Err(err).Str("notice", key.String()).Msg("Send throttling interrupted")
		return deliveryFailed
	}
	if err := n.messenger.Send(ctx, chatID, reply); err != nil {
		release()
		log.Warn().Err(err).Int64("chat_id", chatID).Str("notice", key.String()).Msg("Reminder not delivered")
		return deliveryFailed
	}
	return deliverySent
}

func (r delivery) count(report *models.Report) {
	switch r {
	case deliverySent:
		report.Sent++
	case deliverySkipped:
		report.Skipped++
	default:
		report.Failed++
	}
}
