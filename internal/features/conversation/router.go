package conversation

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"

	authservice "erp-telegram-bot/internal/features/auth/service"
	"erp-telegram-bot/internal/features/session/models"
	"erp-telegram-bot/internal/presentation"
)

// Tier is the priority class that claims an event. Lower tiers win.
type Tier int

const (
	TierCommand Tier = iota + 1
	TierMenu
	TierCallback
	TierPassport
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierCommand:
		return "command"
	case TierMenu:
		return "menu"
	case TierCallback:
		return "callback"
	case TierPassport:
		return "passport"
	default:
		return "fallback"
	}
}

type handlerFunc func(ctx context.Context, ev Event) error

type callbackRoute struct {
	prefix  string
	handler func(ctx context.Context, ev Event, arg string) error
}

type Router struct {
	machine   *authservice.Machine
	gateway   Gateway
	messenger Messenger
	renderer  *presentation.Renderer
	support   SupportContacts
	logger    zerolog.Logger

	commands  map[string]handlerFunc
	menu      map[string]handlerFunc
	callbacks []callbackRoute
}

func NewRouter(
	machine *authservice.Machine,
	gateway Gateway,
	messenger Messenger,
	renderer *presentation.Renderer,
	support SupportContacts,
	logger zerolog.Logger,
) *Router {
	r := &Router{
		machine:   machine,
		gateway:   gateway,
		messenger: messenger,
		renderer:  renderer,
		support:   support,
		logger:    logger.With().Str("component", "router").Logger(),
	}

	r.commands = map[string]handlerFunc{
		"start":   r.handleStart,
		"help":    r.handleHelp,
		"restart": r.handleRestart,
		"menu":    r.handleMenu,
	}
	r.menu = map[string]handlerFunc{
		presentation.ButtonProfile:   r.handleProfile,
		presentation.ButtonContracts: r.handleContracts,
		presentation.ButtonPayments:  r.handlePayments,
		presentation.ButtonReminders: r.handleReminders,
		presentation.ButtonHelp:      r.handleHelp,
		presentation.ButtonBack:      r.handleMenu,
	}
	r.callbacks = []callbackRoute{
		{presentation.CallbackContract, r.handleContractDetail},
		{presentation.CallbackSchedule, r.handleSchedule},
		{presentation.CallbackPayments, r.handleContractPayments},
		{presentation.CallbackBack, r.handleBack},
	}
	return r
}

// Resolve picks the single tier that claims ev.
func (r *Router) Resolve(ctx context.Context, ev Event) Tier {
	if ev.IsCallback() {
		if _, _, ok := r.matchCallback(ev.CallbackData); ok {
			return TierCallback
		}
		return TierFallback
	}

	if ev.IsCommand() {
		if _, ok := r.commands[ev.Command]; ok {
			return TierCommand
		}
		return TierFallback
	}

	if _, ok := r.renderer.MenuAction(ev.Text); ok {
		return TierMenu
	}

	if ev.Text != "" && r.machine.AcceptsInput(ev.Text) {
		stage, err := r.machine.Stage(ctx, ev.UserID)
		if err != nil {
			r.logger.Warn().Err(err).Int64("user_id", ev.UserID).Msg("Stage lookup failed, routing to fallback")
			return TierFallback
		}
		if stage == models.StageAwaitingPassport {
			return TierPassport
		}
	}

	return TierFallback
}

// Dispatch runs the handler of the claiming tier. It never panics and never
// returns an error: failures end in an apology with the operator contact.
func (r *Router) Dispatch(ctx context.Context, ev Event) {
	tier := TierFallback
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Int64("user_id", ev.UserID).
				Str("tier", tier.String()).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("Handler panicked")
			r.apologize(ctx, ev)
		}
	}()

	if ev.IsCallback() {
		if err := r.messenger.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
			r.logger.Debug().Err(err).Str("callback_id", ev.CallbackID).Msg("Callback answer failed")
		}
	}

	tier = r.Resolve(ctx, ev)
	if err := r.run(ctx, tier, ev); err != nil {
		r.logger.Error().
			Err(err).
			Int64("user_id", ev.UserID).
			Str("tier", tier.String()).
			Str("text", ev.Text).
			Str("callback", ev.CallbackData).
			Msg("Handler failed")
		r.apologize(ctx, ev)
	}
}

func (r *Router) run(ctx context.Context, tier Tier, ev Event) error {
	switch tier {
	case TierCommand:
		return r.commands[ev.Command](ctx, ev)
	case TierMenu:
		key, _ := r.renderer.MenuAction(ev.Text)
		return r.menu[key](ctx, ev)
	case TierCallback:
		route, arg, _ := r.matchCallback(ev.CallbackData)
		return route.handler(ctx, ev, arg)
	case TierPassport:
		return r.handlePassport(ctx, ev)
	default:
		return r.handleFallback(ctx, ev)
	}
}

func (r *Router) matchCallback(data string) (callbackRoute, string, bool) {
	for _, route := range r.callbacks {
		if strings.HasPrefix(data, route.prefix) {
			return route, strings.TrimPrefix(data, route.prefix), true
		}
	}
	return callbackRoute{}, "", false
}

func (r *Router) reply(ctx context.Context, ev Event, reply presentation.Reply) error {
	return r.messenger.Send(ctx, ev.ChatID, reply)
}

func (r *Router) apologize(ctx context.Context, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("panic", fmt.Sprint(rec)).Msg("Apology failed")
		}
	}()
	if err := r.reply(ctx, ev, r.renderer.Apology(r.support.Contact(ctx))); err != nil {
		r.logger.Error().Err(err).Int64("user_id", ev.UserID).Msg("Apology not delivered")
	}
}
