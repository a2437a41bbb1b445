// Package scheduler runs the periodic maintenance jobs of the daemon on a
// cron schedule evaluated in the engine's timezone.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/infra/metrics"
)

// DefaultPruneSchedule runs the prune job five minutes after local midnight.
const DefaultPruneSchedule = "5 0 * * *"

// Pruner deletes daily challenge records dated before cutoff.
type Pruner interface {
	PruneChallenges(ctx context.Context, cutoff domain.Day) (int, error)
}

// Config configures the maintenance jobs.
type Config struct {
	PruneSchedule string // standard 5-field cron expression
	RetentionDays int    // challenge records older than this are removed
}

// DefaultConfig returns production job defaults.
func DefaultConfig() Config {
	return Config{
		PruneSchedule: DefaultPruneSchedule,
		RetentionDays: 30,
	}
}

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	cfg      Config
	pruner   Pruner
	clock    domain.Clock
	logger   *zap.Logger
}

// New validates cfg and prepares a scheduler. Jobs start with Run.
func New(cfg Config, pruner Pruner, clock domain.Clock, logger *zap.Logger) (*Scheduler, error) {
	if cfg.PruneSchedule == "" {
		cfg.PruneSchedule = DefaultPruneSchedule
	}
	if cfg.RetentionDays <= 0 {
		return nil, fmt.Errorf("%w: retention_days must be positive", domain.ErrInvalidInput)
	}
	sched, err := cron.ParseStandard(cfg.PruneSchedule)
	if err != nil {
		return nil, fmt.Errorf("%w: prune schedule %q: %v", domain.ErrInvalidInput, cfg.PruneSchedule, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(clock.Location())),
		schedule: sched,
		cfg:      cfg,
		pruner:   pruner,
		clock:    clock,
		logger:   logger.Named("scheduler"),
	}, nil
}

// Run starts the jobs and blocks until ctx is done, then waits for any
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		_, _ = s.Prune(ctx)
	}))
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("prune_schedule", s.cfg.PruneSchedule),
		zap.String("timezone", s.clock.Location().String()))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// Cutoff returns the first day that is kept by the prune job.
func (s *Scheduler) Cutoff() domain.Day {
	return s.clock.Today().AddDays(-s.cfg.RetentionDays)
}

// Prune removes challenge records older than the retention window.
func (s *Scheduler) Prune(ctx context.Context) (int, error) {
	start := time.Now()
	cutoff := s.Cutoff()
	n, err := s.pruner.PruneChallenges(ctx, cutoff)
	if err != nil {
		metrics.JobRuns.WithLabelValues("prune", "error").Inc()
		s.logger.Error("prune failed",
			zap.String("cutoff", cutoff.String()),
			zap.Int("removed", n),
			zap.Error(err))
		return n, err
	}
	metrics.JobRuns.WithLabelValues("prune", "ok").Inc()
	s.logger.Info("prune finished",
		zap.String("cutoff", cutoff.String()),
		zap.Int("removed", n),
		zap.Duration("took", time.Since(start)))
	return n, nil
}
