package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "erp-telegram-bot/internal/common/errors"
	"erp-telegram-bot/internal/features/reminder/models"
	"erp-telegram-bot/internal/features/reminder/repository"
	"erp-telegram-bot/internal/platform/erp"
	"erp-telegram-bot/internal/presentation"
)

// DailySweep sends the ERP-classified reminders once a day.
type DailySweep struct {
	gateway  Gateway
	renderer *presentation.Renderer
	support  SupportContacts
	notifier notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewDailySweep(
	gateway Gateway,
	messenger Messenger,
	renderer *presentation.Renderer,
	support SupportContacts,
	ledger repository.Ledger,
	limiter *rate.Limiter,
	logger zerolog.Logger,
) *DailySweep {
	return &DailySweep{
		gateway:  gateway,
		renderer: renderer,
		support:  support,
		notifier: notifier{ledger: ledger, limiter: limiter, messenger: messenger},
		logger:   logger.With().Str("component", "daily_sweep").Logger(),
		now:      time.Now,
	}
}

func (s *DailySweep) Name() string { return "daily" }

// Run delivers every pending reminder. A failed recipient never stops the
// run; the only error is failing to fetch the list.
func (s *DailySweep) Run(ctx context.Context) (models.Report, error) {
	report := models.Report{RunID: uuid.NewString(), Sweep: s.Name(), StartedAt: s.now()}
	log := s.logger.With().Str("run_id", report.RunID).Logger()

	res, err := s.gateway.ListCustomersNeedingReminders(ctx, nil)
	if err != nil {
		return report, err
	}
	if res.Failed() {
		return report, apperrors.New(apperrors.ErrCodeExternalAPI, "ERP refused reminder list").
			WithDetail("error_code", res.ErrorCode).
			WithDetail("message", res.Message)
	}

	contact := s.support.Contact(ctx)
	for _, entry := range res.Data.Reminders {
		report.Total++

		if !entry.TelegramChatID.Valid() {
			report.Failed++
			log.Warn().Str("customer_id", entry.CustomerID).Str("contract_id", entry.ContractID).Msg("Reminder without chat id")
			continue
		}

		bucket := models.Bucket(entry.ReminderType)
		if !s.renderer.HasReminderTemplate(entry.ReminderType) {
			log.Warn().Str("reminder_type", entry.ReminderType).Msg("Unknown reminder type, using due-today text")
			bucket = models.BucketToday
		}

		key := models.NoticeKey{ContractID: entry.ContractID, DueDate: entry.DueDate, Bucket: bucket}
		if due, err := erp.ParseDate(entry.DueDate); err == nil {
			key = models.NewNoticeKey(entry.ContractID, due, bucket)
		}

		reply := s.renderer.DailyReminder(string(bucket), entry, contact)
		s.notifier.deliver(ctx, log, report.RunID, key, entry.TelegramChatID.Int64(), reply).count(&report)
	}

	report.Duration = time.Since(report.StartedAt)
	log.Info().
		Int("total", report.Total).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("duration", report.Duration).
		Msg("Daily reminder sweep finished")
	return report, nil
}
