package service

import (
	"context"

	"github.com/rs/zerolog"

	"erp-telegram-bot/internal/features/payment/models"
	"erp-telegram-bot/internal/presentation"
)

type Messenger interface {
	Send(ctx context.Context, chatID int64, reply presentation.Reply) error
}

// Relay forwards payment confirmations to the payer's chat.
type Relay struct {
	messenger Messenger
	renderer  *presentation.Renderer
	logger    zerolog.Logger
}

func NewRelay(messenger Messenger, renderer *presentation.Renderer, logger zerolog.Logger) *Relay {
	return &Relay{
		messenger: messenger,
		renderer:  renderer,
		logger:    logger.With().Str("component", "payment_relay").Logger(),
	}
}

// Deliver sends the confirmation. Payments of customers without a linked
// chat report (false, nil).
func (r *Relay) Deliver(ctx context.Context, ev models.PaymentEvent) (bool, error) {
	if err := ev.Validate(); err != nil {
		return false, err
	}
	if !ev.PlatformID.Valid() {
		r.logger.Info().Str("payment_id", ev.PaymentID).Str("customer_id", ev.CustomerID).Bool("delivered", false).Msg("Payment without linked chat")
		return false, nil
	}

	reply := r.renderer.PaymentConfirmation(presentation.PaymentReceipt{
		PaymentID:  ev.PaymentID,
		ContractID: ev.ContractID,
		Amount:     ev.Amount,
		Date:       ev.Date,
		Method:     ev.Method,
	})
	if err := r.messenger.Send(ctx, ev.PlatformID.Int64(), reply); err != nil {
		r.logger.Error().Err(err).Str("payment_id", ev.PaymentID).Bool("delivered", false).Msg("Payment confirmation failed")
		return false, err
	}

	r.logger.Info().Str("payment_id", ev.PaymentID).Str("contract_id", ev.ContractID).Bool("delivered", true).Msg("Payment confirmation relayed")
	return true, nil
}
