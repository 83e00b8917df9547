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

const (
	defaultPageSize = 500
	// maxPages stops a run if the ERP keeps returning full pages.
	maxPages = 1000
)

// HourlySweep pages through orders with a next payment date and notifies the
// ones that fall into a bucket today.
type HourlySweep struct {
	gateway  Gateway
	renderer *presentation.Renderer
	notifier notifier
	pageSize int
	location *time.Location
	logger   zerolog.Logger
	now      func() time.Time
}

func NewHourlySweep(
	gateway Gateway,
	messenger Messenger,
	renderer *presentation.Renderer,
	ledger repository.Ledger,
	limiter *rate.Limiter,
	pageSize int,
	location *time.Location,
	logger zerolog.Logger,
) *HourlySweep {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if location == nil {
		location = time.UTC
	}
	return &HourlySweep{
		gateway:  gateway,
		renderer: renderer,
		notifier: notifier{ledger: ledger, limiter: limiter, messenger: messenger},
		pageSize: pageSize,
		location: location,
		logger:   logger.With().Str("component", "hourly_sweep").Logger(),
		now:      time.Now,
	}
}

func (s *HourlySweep) Name() string { return "hourly" }

// Run walks all pages. Total counts fetched rows; rows outside every bucket
// are neither sent nor skipped.
func (s *HourlySweep) Run(ctx context.Context) (models.Report, error) {
	report := models.Report{RunID: uuid.NewString(), Sweep: s.Name(), StartedAt: s.now()}
	log := s.logger.With().Str("run_id", report.RunID).Logger()
	now := s.now()

	for page := 0; page < maxPages; page++ {
		res, err := s.gateway.ListActiveDuePayments(ctx, page*s.pageSize, s.pageSize)
		if err != nil {
			return report, err
		}
		if res.Failed() {
			return report, apperrors.New(apperrors.ErrCodeExternalAPI, "ERP refused due payment page").
				WithDetail("page", page).
				WithDetail("error_code", res.ErrorCode)
		}

		for _, order := range res.Data.Data {
			report.Total++
			s.notify(ctx, log, &report, order, now)
		}

		if len(res.Data.Data) < s.pageSize {
			break
		}
	}

	report.Duration = time.Since(report.StartedAt)
	log.Info().
		Int("total", report.Total).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Dur("duration", report.Duration).
		Msg("Due payment sweep finished")
	return report, nil
}

func (s *HourlySweep) notify(ctx context.Context, log zerolog.Logger, report *models.Report, order erp.DueOrder, now time.Time) {
	if !order.TelegramChatID.Valid() || order.NextPaymentDate == "" {
		report.Skipped++
		return
	}
	due, err := erp.ParseDate(order.NextPaymentDate)
	if err != nil {
		log.Debug().Str("order", order.Name).Str("date", order.NextPaymentDate).Msg("Unparseable payment date")
		report.Skipped++
		return
	}

	offset := models.DayOffset(due, now, s.location)
	bucket, ok := models.BucketForOffset(offset)
	if !ok {
		return
	}

	daysOverdue := 0
	if offset < 0 {
		daysOverdue = -offset
	}
	reply := s.renderer.DueNotice(string(bucket), order, daysOverdue)
	key := models.NewNoticeKey(order.Name, due, bucket)
	s.notifier.deliver(ctx, log, report.RunID, key, order.TelegramChatID.Int64(), reply).count(report)
}
