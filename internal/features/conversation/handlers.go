package conversation

import (
	"context"
	"fmt"

	"erp-telegram-bot/internal/common/validation"
	authservice "erp-telegram-bot/internal/features/auth/service"
	"erp-telegram-bot/internal/platform/erp"
	"erp-telegram-bot/internal/presentation"
)

func identity(ev Event) authservice.Identity {
	return authservice.Identity{UserID: ev.UserID, DisplayName: ev.DisplayName}
}

// Authentication.

func (r *Router) handleStart(ctx context.Context, ev Event) error {
	out, err := r.machine.Start(ctx, identity(ev))
	if err != nil {
		return err
	}
	return r.replyOutcome(ctx, ev, out)
}

func (r *Router) handleRestart(ctx context.Context, ev Event) error {
	if err := r.machine.Reset(ctx, ev.UserID); err != nil {
		return err
	}
	return r.handleStart(ctx, ev)
}

func (r *Router) handlePassport(ctx context.Context, ev Event) error {
	out, err := r.machine.SubmitPassport(ctx, identity(ev), ev.Text)
	if err != nil {
		return err
	}
	return r.replyOutcome(ctx, ev, out)
}

func (r *Router) replyOutcome(ctx context.Context, ev Event, out authservice.Outcome) error {
	var reply presentation.Reply
	switch out.Kind {
	case authservice.OutcomeRecognized:
		reply = r.renderer.WelcomeBack(out.Customer, out.Contracts)
	case authservice.OutcomeLinked:
		reply = r.renderer.Linked(out.Customer, out.Contracts, out.IsNewLink)
	case authservice.OutcomePassportRequested:
		reply = r.renderer.PassportPrompt()
	case authservice.OutcomeFormatError:
		reply = r.renderer.PassportFormatError()
	case authservice.OutcomeNotFound:
		reply = r.renderer.PassportNotFound(out.Message)
	case authservice.OutcomeConflict:
		reply = r.renderer.LinkConflict(out.Message, r.support.Contact(ctx))
	case authservice.OutcomeUnavailable:
		reply = r.renderer.Unavailable(r.support.Contact(ctx))
	default:
		return r.handleFallback(ctx, ev)
	}
	return r.reply(ctx, ev, reply)
}

// Menu.

func (r *Router) handleMenu(ctx context.Context, ev Event) error {
	return r.reply(ctx, ev, r.renderer.Menu())
}

func (r *Router) handleHelp(ctx context.Context, ev Event) error {
	return r.reply(ctx, ev, r.renderer.Help(r.support.Contact(ctx)))
}

func (r *Router) handleProfile(ctx context.Context, ev Event) error {
	res, err := r.gateway.LookupByPlatformID(ctx, ev.UserID)
	if err != nil {
		return r.unavailable(ctx, ev, err)
	}
	if res.Failed() || res.Data.Customer == nil {
		return r.reply(ctx, ev, r.renderer.NotLinked())
	}
	return r.reply(ctx, ev, r.renderer.Profile(res.Data.Customer, res.Data.Contracts))
}

func (r *Router) handleContracts(ctx context.Context, ev Event) error {
	res, err := r.gateway.ListContracts(ctx, ev.UserID)
	if err != nil {
		return r.unavailable(ctx, ev, err)
	}
	if res.Failed() {
		return r.reply(ctx, ev, r.renderer.NotLinked())
	}
	return r.reply(ctx, ev, r.renderer.ContractList(res.Data.Contracts))
}

func (r *Router) handlePayments(ctx context.Context, ev Event) error {
	contracts, err := r.gateway.ListContracts(ctx, ev.UserID)
	if err != nil {
		return r.unavailable(ctx, ev, err)
	}
	if contracts.Failed() {
		return r.reply(ctx, ev, r.renderer.NotLinked())
	}

	history, err := r.gateway.ListPaymentHistory(ctx, ev.UserID)
	if err != nil {
		return r.unavailable(ctx, ev, err)
	}
	var payments []erp.Payment
	if history.Success {
		payments = history.Data.Payments
	}
	return r.reply(ctx, ev, r.renderer.PaymentHistory("", payments, contracts.Data.Contracts))
}

func (r *Router) handleReminders(ctx context.Context, ev Event) error {
	res, err := r.gateway.ListReminders(ctx, ev.UserID)
	if err != nil {
		return r.unavailable(ctx, ev, err)
	}
	if res.Failed() {
		return r.reply(ctx, ev, r.renderer.NotLinked())
	}
	return r.reply(ctx, ev, r.renderer.Reminders(res.Data))
}

// Callbacks. Contract ids come from the client and are checked against the
// contracts of the caller before any detail is fetched.

func (r *Router) handleContractDetail(ctx context.Context, ev Event, contractID string) error {
	if ok, err := r.owns(ctx, ev, contractID); !ok || err != nil {
		return err
	}
	res, err := r.gateway.GetContractDetail(ctx, contractID)
	if err != nil {
		return r.unavailable(ctx, ev, err)
	}
	if res.Failed() || res.Data.Contract == nil {
		return r.handleFallback(ctx, ev)
	}
	return r.reply(ctx, ev, r.renderer.ContractDetail(res.Data.Contract))
}

func (r *Router) handleSchedule(ctx context.Context, ev Event, contractID string) error {
	if ok, err := r.owns(ctx, ev, contractID); !ok || err != nil {
		return err
	}
	res, err := r.gateway.GetPaymentSchedule(ctx, contractID)
	if err != nil {
		return r.unavailable(ctx, ev, err)
	}
	var entries []erp.ScheduleEntry
	if res.Success {
		entries = res.Data.Schedule
	}
	return r.reply(ctx, ev, r.renderer.Schedule(contractID, entries))
}

func (r *Router) handleContractPayments(ctx context.Context, ev Event, contractID string) error {
	if ok, err := r.owns(ctx, ev, contractID); !ok || err != nil {
		return err
	}
	res, err := r.gateway.GetPaymentHistory(ctx, contractID)
	if err != nil {
		return r.unavailable(ctx, ev, err)
	}
	var payments []erp.Payment
	if res.Success {
		payments = res.Data.Payments
	}
	return r.reply(ctx, ev, r.renderer.PaymentHistory(contractID, payments, nil))
}

func (r *Router) handleBack(ctx context.Context, ev Event, target string) error {
	switch target {
	case presentation.BackToContracts:
		return r.handleContracts(ctx, ev)
	default:
		return r.handleMenu(ctx, ev)
	}
}

// Fallback.

func (r *Router) handleFallback(ctx context.Context, ev Event) error {
	awaiting := false
	if stage, err := r.machine.Stage(ctx, ev.UserID); err == nil {
		awaiting = stage.IsAwaitingPassport()
	}
	return r.reply(ctx, ev, r.renderer.Unknown(r.support.Contact(ctx), awaiting))
}

// owns reports whether contractID belongs to the caller. A false result has
// already been answered.
func (r *Router) owns(ctx context.Context, ev Event, contractID string) (bool, error) {
	if err := validation.ValidateContractID(contractID); err != nil {
		return false, r.handleFallback(ctx, ev)
	}
	res, err := r.gateway.ListContracts(ctx, ev.UserID)
	if err != nil {
		return false, r.unavailable(ctx, ev, err)
	}
	if res.Failed() {
		return false, r.reply(ctx, ev, r.renderer.NotLinked())
	}
	for _, c := range res.Data.Contracts {
		if c.ID == contractID {
			return true, nil
		}
	}
	r.logger.Warn().Int64("user_id", ev.UserID).Str("contract_id", contractID).Msg("Contract not owned by caller")
	return false, r.handleFallback(ctx, ev)
}

func (r *Router) unavailable(ctx context.Context, ev Event, cause error) error {
	r.logger.Error().Err(cause).Int64("user_id", ev.UserID).Msg("ERP request failed")
	if err := r.reply(ctx, ev, r.renderer.Unavailable(r.support.Contact(ctx))); err != nil {
		return fmt.Errorf("notify unavailable: %w", err)
	}
	return nil
}
