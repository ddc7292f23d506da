package scheduler

import (
	"context"
	"log/slog"
	"time"

	"sonec/internal/collector"
	"sonec/internal/config"
	"sonec/internal/domain"
)

// Collector runs one collection cycle per scope and reports stale jobs.
type Collector interface {
	Collect(ctx context.Context, req collector.CollectRequest) (*domain.CollectReport, error)
	StaleJobs(ctx context.Context, olderThan time.Duration) ([]domain.FetchJob, error)
}

type Scheduler struct {
	collector    Collector
	scopes       []collector.CollectRequest
	interval     time.Duration
	staleAfter   time.Duration
	scopeTimeout time.Duration
	logger       *slog.Logger
}

func NewScheduler(c Collector, scopes []collector.CollectRequest, cfg config.CollectConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		collector:    c,
		scopes:       scopes,
		interval:     cfg.Interval,
		staleAfter:   cfg.StaleAfter,
		scopeTimeout: cfg.ScopeTimeout,
		logger:       logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "scopes", len(s.scopes))

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle collects every configured scope in order. One scope failing does
// not stop the rest.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.reportStaleJobs(ctx)

	for _, scope := range s.scopes {
		cycleCtx := ctx
		cancel := func() {}
		if s.scopeTimeout > 0 {
			cycleCtx, cancel = context.WithTimeout(ctx, s.scopeTimeout)
		}
		report, err := s.collector.Collect(cycleCtx, scope)
		cancel()

		if err != nil {
			s.logger.Error("collect failed",
				"provider", scope.Provider,
				"source", scope.Source,
				"query", scope.Query,
				"error", err,
			)
			continue
		}
		s.logger.Info("collect cycle done",
			"provider", report.Provider,
			"source", report.Source,
			"inserted", report.Inserted,
			"conflicted", report.Conflicted,
		)
	}
}

func (s *Scheduler) reportStaleJobs(ctx context.Context) {
	if s.staleAfter <= 0 {
		return
	}
	stale, err := s.collector.StaleJobs(ctx, s.staleAfter)
	if err != nil {
		s.logger.Error("stale job check failed", "error", err)
		return
	}
	for _, job := range stale {
		s.logger.Warn("job still running past threshold",
			"job_id", job.ID,
			"provider", job.Provider,
			"source", job.Source,
			"started_at", job.StartedAt,
		)
	}
}
