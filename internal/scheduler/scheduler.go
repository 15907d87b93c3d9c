package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bumpbot/internal/models"
)

// DefaultInterval matches the forum's bump cooldown
const DefaultInterval = 12 * time.Hour

// Bumper runs a full bump pass
type Bumper interface {
	BumpAll(ctx context.Context) ([]models.BumpResult, error)
}

// Reporter delivers the results of an unattended pass
type Reporter interface {
	ReportBumps(ctx context.Context, results []models.BumpResult)
}

// Scheduler periodically bumps every tracked thread.
// The wait starts over on every process start.
type Scheduler struct {
	interval time.Duration
	bumper   Bumper
	reporter Reporter
	logger   *zap.Logger
}

// New creates a scheduler. reporter may be nil, in which case results are only logged.
func New(interval time.Duration, bumper Bumper, reporter Reporter, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		interval: interval,
		bumper:   bumper,
		reporter: reporter,
		logger:   logger.Named("scheduler"),
	}
}

// Run blocks until ctx is cancelled. Each wait starts when the previous pass
// ends, so a thread is never bumped sooner than interval after its last bump.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting bump scheduler", zap.Duration("interval", s.interval))
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping bump scheduler")
			return ctx.Err()
		case <-timer.C:
			s.tick(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	results, err := s.bumper.BumpAll(ctx)
	if err != nil {
		s.logger.Error("Scheduled bump pass failed", zap.Error(err), zap.Int("done", len(results)))
	}

	counts := make(map[models.BumpStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	s.logger.Info("Scheduled bump pass complete",
		zap.Int("threads", len(results)),
		zap.Int("bumped", counts[models.BumpStatusBumped]),
		zap.Int("rate_limited", counts[models.BumpStatusRateLimited]),
	)

	if s.reporter != nil && len(results) > 0 {
		s.reporter.ReportBumps(ctx, results)
	}
}
