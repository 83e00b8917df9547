package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"erp-telegram-bot/internal/features/reminder/models"
)

const sweepTimeout = 30 * time.Minute

type SchedulerConfig struct {
	Location *time.Location
	// DailyHour and DailyMinute are the wall-clock time of the daily sweep.
	DailyHour     int
	DailyMinute   int
	SweepInterval time.Duration
}

// Scheduler runs the daily sweep at a fixed time of day and the interval
// sweep on a ticker. A failing or panicking run is logged and the loop goes on.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	daily  Sweeper
	hourly Sweeper
	cfg    SchedulerConfig
	logger zerolog.Logger
	now    func() time.Time

	// one run per sweeper at a time
	dailyMu  sync.Mutex
	hourlyMu sync.Mutex
}

func NewScheduler(daily, hourly Sweeper, cfg SchedulerConfig, logger zerolog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		daily:  daily,
		hourly: hourly,
		cfg:    cfg,
		logger: logger.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}
}

func (s *Scheduler) Start() {
	s.logger.Info().
		Str("daily_at", fmt.Sprintf("%02d:%02d", s.cfg.DailyHour, s.cfg.DailyMinute)).
		Str("timezone", s.cfg.Location.String()).
		Dur("interval", s.cfg.SweepInterval).
		Msg("Starting reminder scheduler")

	if s.daily != nil {
		s.wg.Add(1)
		go s.dailyLoop()
	}
	if s.hourly != nil {
		s.wg.Add(1)
		go s.intervalLoop()
	}
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("Reminder scheduler stopped")
}

// TriggerDaily runs the daily sweep now, outside the schedule.
func (s *Scheduler) TriggerDaily(ctx context.Context) (models.Report, error) {
	return s.runSafely(ctx, s.daily, &s.dailyMu)
}

// TriggerHourly runs the interval sweep now.
func (s *Scheduler) TriggerHourly(ctx context.Context) (models.Report, error) {
	return s.runSafely(ctx, s.hourly, &s.hourlyMu)
}

func (s *Scheduler) dailyLoop() {
	defer s.wg.Done()
	for {
		next := nextDailyRun(s.now(), s.cfg.Location, s.cfg.DailyHour, s.cfg.DailyMinute)
		timer := time.NewTimer(time.Until(next))
		s.logger.Debug().Time("next_run", next).Msg("Daily sweep scheduled")

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.iterate(s.daily, &s.dailyMu)
		}
	}
}

func (s *Scheduler) intervalLoop() {
	defer s.wg.Done()

	s.iterate(s.hourly, &s.hourlyMu)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.iterate(s.hourly, &s.hourlyMu)
		}
	}
}

func (s *Scheduler) iterate(sweeper Sweeper, mu *sync.Mutex) {
	if s.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, sweepTimeout)
	defer cancel()
	if _, err := s.runSafely(ctx, sweeper, mu); err != nil {
		s.logger.Error().Err(err).Str("sweep", sweeper.Name()).Msg("Sweep failed, waiting for next run")
	}
}

func (s *Scheduler) runSafely(ctx context.Context, sweeper Sweeper, mu *sync.Mutex) (report models.Report, err error) {
	if sweeper == nil {
		return report, fmt.Errorf("sweep not configured")
	}
	mu.Lock()
	defer mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().
				Str("sweep", sweeper.Name()).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("Sweep panicked")
			err = fmt.Errorf("sweep %s panicked: %v", sweeper.Name(), rec)
		}
	}()
	return sweeper.Run(ctx)
}

// nextDailyRun returns the first hour:minute in loc strictly after now.
func nextDailyRun(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}
