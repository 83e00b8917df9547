package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"erp-telegram-bot/internal/common/validation"
	"erp-telegram-bot/internal/features/session/models"
	"erp-telegram-bot/internal/features/session/repository"
	"erp-telegram-bot/internal/platform/erp"
)

// Machine owns the authentication stage of every identity. Handlers read and
// change the stage only through it.
type Machine struct {
	gateway  Gateway
	sessions repository.SessionRepository
	reserved ReservedText
	logger   zerolog.Logger
}

func NewMachine(gateway Gateway, sessions repository.SessionRepository, reserved ReservedText, logger zerolog.Logger) *Machine {
	if reserved == nil {
		reserved = func(string) bool { return false }
	}
	return &Machine{
		gateway:  gateway,
		sessions: sessions,
		reserved: reserved,
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// Start handles the entry trigger: a linked identity is recognized, anyone
// else is asked for a passport.
func (m *Machine) Start(ctx context.Context, id Identity) (Outcome, error) {
	res, err := m.gateway.LookupByPlatformID(ctx, id.UserID)
	if err != nil {
		return m.unavailable(ctx, id, err)
	}

	if res.Success && res.Data.Customer != nil {
		if err := m.remember(ctx, id, res.Data.Customer, ""); err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Kind:      OutcomeRecognized,
			Customer:  res.Data.Customer,
			Contracts: res.Data.Contracts,
		}, nil
	}

	if err := m.sessions.Clear(ctx, id.UserID); err != nil {
		return Outcome{}, err
	}
	if err := m.sessions.SetStage(ctx, id.UserID, models.StageAwaitingPassport); err != nil {
		return Outcome{}, err
	}
	m.logger.Debug().Int64("user_id", id.UserID).Str("error_code", res.ErrorCode).Msg("Identity not linked, passport requested")
	return Outcome{Kind: OutcomePassportRequested}, nil
}

// AcceptsInput reports whether text may be treated as passport input at all.
// Menu captions, commands and anything longer than a passport never are.
func (m *Machine) AcceptsInput(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "/") {
		return false
	}
	if m.reserved(text) || m.reserved(trimmed) {
		return false
	}
	return validation.IsPlausiblePassportInput(text)
}

// SubmitPassport processes a passport typed while awaiting one.
func (m *Machine) SubmitPassport(ctx context.Context, id Identity, text string) (Outcome, error) {
	if !m.AcceptsInput(text) {
		return Outcome{Kind: OutcomeIgnored}, nil
	}

	stage, err := m.sessions.GetStage(ctx, id.UserID)
	if err != nil {
		return Outcome{}, err
	}
	if stage != models.StageAwaitingPassport {
		return Outcome{Kind: OutcomeIgnored}, nil
	}

	passport, err := validation.ValidatePassport(text)
	if err != nil {
		return Outcome{Kind: OutcomeFormatError}, nil
	}

	res, err := m.gateway.LookupByPassport(ctx, passport, id.UserID)
	if err != nil {
		return m.unavailable(ctx, id, err)
	}

	switch {
	case res.Success && res.Data.Customer != nil:
		if err := m.remember(ctx, id, res.Data.Customer, passport); err != nil {
			return Outcome{}, err
		}
		m.logger.Info().
			Int64("user_id", id.UserID).
			Str("customer_id", res.Data.Customer.ID).
			Bool("is_new_link", res.Data.IsNewLink).
			Msg("Identity linked")
		return Outcome{
			Kind:      OutcomeLinked,
			Customer:  res.Data.Customer,
			Contracts: res.Data.Contracts,
			IsNewLink: res.Data.IsNewLink,
		}, nil

	case res.IsConflict():
		m.logger.Warn().
			Int64("user_id", id.UserID).
			Str("passport", maskPassport(passport)).
			Str("error_code", res.ErrorCode).
			Msg("Link conflict")
		return Outcome{Kind: OutcomeConflict, Message: res.Message, ErrorCode: res.ErrorCode}, nil

	default:
		return Outcome{Kind: OutcomeNotFound, Message: res.Message, ErrorCode: res.ErrorCode}, nil
	}
}

func (m *Machine) Stage(ctx context.Context, userID int64) (models.Stage, error) {
	return m.sessions.GetStage(ctx, userID)
}

// Reset abandons any pending flow.
func (m *Machine) Reset(ctx context.Context, userID int64) error {
	return m.sessions.Clear(ctx, userID)
}

// CustomerID returns the linked customer remembered in the session, or "".
func (m *Machine) CustomerID(ctx context.Context, userID int64) (string, error) {
	data, err := m.sessions.GetData(ctx, userID)
	if err != nil {
		return "", err
	}
	return data[models.DataCustomerID], nil
}

func (m *Machine) remember(ctx context.Context, id Identity, c *erp.Customer, passport string) error {
	if err := m.sessions.Clear(ctx, id.UserID); err != nil {
		return err
	}
	values := map[string]string{
		models.DataCustomerID:   c.ID,
		models.DataCustomerName: c.Name,
	}
	if passport != "" {
		values[models.DataPassport] = passport
	}
	return m.sessions.UpdateData(ctx, id.UserID, values)
}

func (m *Machine) unavailable(ctx context.Context, id Identity, cause error) (Outcome, error) {
	m.logger.Error().Err(cause).Int64("user_id", id.UserID).Msg("ERP lookup failed, session cleared")
	if err := m.sessions.Clear(ctx, id.UserID); err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: OutcomeUnavailable, Cause: cause}, nil
}

func maskPassport(p string) string {
	if len(p) < 4 {
		return "***"
	}
	return p[:2] + strings.Repeat("*", len(p)-4) + p[len(p)-2:]
}
