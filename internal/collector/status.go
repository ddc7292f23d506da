package collector

import (
	"context"
	"time"

	"sonec/internal/domain"
)

// StatusRequest narrows the snapshot. Empty fields mean no filter.
type StatusRequest struct {
	Provider string
	Source   string
	JobLimit int
}

const defaultJobLimit = 20

// Status reports cursor positions and recent job outcomes for operator
// inspection.
func (r *Runner) Status(ctx context.Context, req StatusRequest) (*domain.StatusSnapshot, error) {
	cursors, err := r.status.ListCursors(ctx, req.Provider, req.Source)
	if err != nil {
		return nil, err
	}
	limit := req.JobLimit
	if limit <= 0 {
		limit = defaultJobLimit
	}
	jobs, err := r.status.ListJobs(ctx, req.Provider, req.Source, limit)
	if err != nil {
		return nil, err
	}
	return &domain.StatusSnapshot{Cursors: cursors, Jobs: jobs}, nil
}

// StaleJobs lists jobs still marked running past the given age, typically
// leftovers from a crashed process.
func (r *Runner) StaleJobs(ctx context.Context, olderThan time.Duration) ([]domain.FetchJob, error) {
	return r.status.StaleRunningJobs(ctx, olderThan)
}

// ForceSetCursor overrides a scope's cursor, bypassing the regression
// check. It is the corrective path after a remote history rewrite and is
// always logged.
func (r *Runner) ForceSetCursor(ctx context.Context, providerName, source string, pos domain.CursorPosition) error {
	src, err := r.catalog.GetOrCreateSource(ctx, providerName, source, "")
	if err != nil {
		return err
	}
	if err := r.cursors.AdvanceCursor(ctx, providerName, src.ID, pos, true); err != nil {
		return err
	}
	r.logger.Warn("cursor force-set",
		"provider", providerName,
		"source", source,
		"cursor", pos.Token,
		"high_water", pos.HighWater,
	)
	return nil
}
