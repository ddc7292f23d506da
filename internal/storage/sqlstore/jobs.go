package sqlstore

import (
	"context"
	"fmt"
	"time"

	"sonec/internal/domain"
)

type jobRow struct {
	ID         int64           `db:"id"`
	Provider   string          `db:"provider"`
	SourceID   int64           `db:"source_id"`
	Source     string          `db:"source"`
	StartedAt  utcTime         `db:"started_at"`
	FinishedAt nullUTCTime     `db:"finished_at"`
	Status     string          `db:"status"`
	Stats      domain.JobStats `db:"stats"`
}

func (r jobRow) toDomain() domain.FetchJob {
	return domain.FetchJob{
		ID:         r.ID,
		Provider:   r.Provider,
		SourceID:   r.SourceID,
		Source:     r.Source,
		StartedAt:  r.StartedAt.Time,
		FinishedAt: r.FinishedAt.ptr(),
		Status:     domain.JobStatus(r.Status),
		Stats:      r.Stats,
	}
}

// BeginJob appends a running fetch job record and returns its id.
func (s *Store) BeginJob(ctx context.Context, providerName string, sourceID int64, startedAt time.Time) (int64, error) {
	query := s.db.Rebind(`
		INSERT INTO fetch_jobs (provider, source_id, started_at, status, stats)
		VALUES (?, ?, ?, ?, '{}')
		RETURNING id`)

	var id int64
	err := s.ext(ctx).QueryRowxContext(ctx, query, providerName, sourceID, utcTime{startedAt}, domain.JobRunning).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("begin job %s/%d: %w", providerName, sourceID, err)
	}
	return id, nil
}

// FinishJob closes a job with its terminal status and final stats. Jobs are
// append-only otherwise; this is the single permitted mutation.
func (s *Store) FinishJob(ctx context.Context, jobID int64, status domain.JobStatus, stats domain.JobStats, finishedAt time.Time) error {
	query := s.db.Rebind(`
		UPDATE fetch_jobs SET status = ?, stats = ?, finished_at = ?
		WHERE id = ?`)

	res, err := s.ext(ctx).ExecContext(ctx, query, status, stats, utcTime{finishedAt}, jobID)
	if err != nil {
		return fmt.Errorf("finish job %d: %w", jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish job %d: no such job", jobID)
	}
	return nil
}

// ListJobs returns the most recent jobs for a scope, newest first.
func (s *Store) ListJobs(ctx context.Context, providerName, sourceDescriptor string, limit int) ([]domain.FetchJob, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT j.id, j.provider, j.source_id, src.descriptor AS source,
		       j.started_at, j.finished_at, j.status, j.stats
		FROM fetch_jobs j
		JOIN sources src ON src.id = j.source_id`
	var args []any
	var where []string
	if providerName != "" {
		where = append(where, "j.provider = ?")
		args = append(args, providerName)
	}
	if sourceDescriptor != "" {
		where = append(where, "src.descriptor = ?")
		args = append(args, sourceDescriptor)
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY j.started_at DESC, j.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.ext(ctx).QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.FetchJob
	for rows.Next() {
		var row jobRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		out = append(out, row.toDomain())
	}
	return out, rows.Err()
}

// StaleRunningJobs returns jobs still marked running past the cutoff. A hit
// means a cycle died without closing its job; the record itself stays, the
// anomaly is for operators to see.
func (s *Store) StaleRunningJobs(ctx context.Context, olderThan time.Duration) ([]domain.FetchJob, error) {
	cutoff := s.now().Add(-olderThan)
	query := s.db.Rebind(`
		SELECT j.id, j.provider, j.source_id, src.descriptor AS source,
		       j.started_at, j.finished_at, j.status, j.stats
		FROM fetch_jobs j
		JOIN sources src ON src.id = j.source_id
		WHERE j.status = ? AND j.started_at < ?
		ORDER BY j.started_at`)

	rows, err := s.ext(ctx).QueryxContext(ctx, query, domain.JobRunning, utcTime{cutoff})
	if err != nil {
		return nil, fmt.Errorf("list stale jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.FetchJob
	for rows.Next() {
		var row jobRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		out = append(out, row.toDomain())
	}
	return out, rows.Err()
}
