package server

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ratesync/internal/config"
)

// Scheduler drives the unconditional scheduled trigger. Per-tick failures
// are logged and swallowed so a transient outage on one tick does not
// escalate into the hosting environment's retry machinery.
type Scheduler struct {
	engine   Runner
	interval time.Duration
	logger   zerolog.Logger
}

// NewScheduler creates the scheduled trigger.
func NewScheduler(engine Runner, cfg config.SchedulerConfig, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		engine:   engine,
		interval: cfg.Interval,
		logger:   logger,
	}
}

// Start runs the tick loop until the context is cancelled. The first tick
// fires after one interval, not immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	result, err := s.engine.Run(ctx, false)
	if err != nil {
		// Swallowed deliberately: the next tick starts a fresh run.
		s.logger.Error().Err(err).Msg("Scheduled reconciliation run failed")
		return
	}
	s.logger.Info().
		Bool("executed", result.Executed).
		Bool("wrote", result.Wrote).
		Str("skip_reason", result.SkipReason).
		Msg("Scheduled reconciliation run finished")
}
