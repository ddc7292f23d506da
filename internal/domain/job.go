package domain

import "time"

// JobStatus labels the lifecycle of a fetch job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// JobStats summarizes one ingestion cycle. WindowStart/WindowEnd bound the
// source-reported creation times actually covered by the cycle.
type JobStats struct {
	Fetched     int        `json:"fetched"`
	Inserted    int        `json:"inserted"`
	Conflicted  int        `json:"conflicted"`
	Errors      int        `json:"errors"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
}

// FetchJob is the append-only audit record of one ingestion cycle.
// started_at <= finished_at holds once finished_at is set.
type FetchJob struct {
	ID         int64      `db:"id" json:"id"`
	Provider   string     `db:"provider" json:"provider"`
	SourceID   int64      `db:"source_id" json:"source_id"`
	Source     string     `db:"source" json:"source"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	Status     JobStatus  `db:"status" json:"status"`
	Stats      JobStats   `db:"stats" json:"stats"`
}

// CursorPosition is the incremental position of a (provider, source) scope.
// Token is opaque to everything but the owning adapter; HighWater is the
// newest source-reported creation time covered by a committed batch and
// defines the ordering used for regression checks.
type CursorPosition struct {
	Token     string    `json:"cursor,omitempty"`
	HighWater time.Time `json:"high_water"`
	Pages     int       `json:"pages,omitempty"`
}

// IsZero reports whether the position is the default start.
func (p CursorPosition) IsZero() bool {
	return p.Token == "" && p.HighWater.IsZero() && p.Pages == 0
}

// Before reports whether p is ordered strictly before other. Advancing to a
// position that is Before the current one is a regression.
func (p CursorPosition) Before(other CursorPosition) bool {
	return p.HighWater.Before(other.HighWater)
}

// Cursor is the persisted incremental position, unique per
// (provider, source).
type Cursor struct {
	ID        int64          `db:"id" json:"id"`
	Provider  string         `db:"provider" json:"provider"`
	SourceID  int64          `db:"source_id" json:"source_id"`
	Source    string         `db:"source" json:"source"`
	Position  CursorPosition `db:"position" json:"position"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// BatchResult reports the outcome of one persisted batch. Posts carries the
// newly inserted rows with their assigned ids; conflicted rows are left
// untouched and not re-reported.
type BatchResult struct {
	Inserted   int
	Conflicted int
	Posts      []Post
}

// CollectReport is the caller-facing summary of one collect operation.
type CollectReport struct {
	JobID      int64  `json:"job_id"`
	Provider   string `json:"provider"`
	Source     string `json:"source"`
	Fetched    int    `json:"fetched"`
	Inserted   int    `json:"inserted"`
	Conflicted int    `json:"conflicted"`
	Errors     int    `json:"errors"`
	LastCursor string `json:"last_cursor,omitempty"`
}

// StatusSnapshot is the diagnostics view returned by the status operation.
type StatusSnapshot struct {
	Cursors []Cursor   `json:"cursors"`
	Jobs    []FetchJob `json:"jobs"`
}
