package collector

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"sonec/internal/domain"
	"sonec/internal/provider"
)

// ProviderRegistry resolves adapter instances by name.
type ProviderRegistry interface {
	Resolve(name string) (provider.Adapter, error)
}

// CatalogStore owns the provider and source natural-key rows.
type CatalogStore interface {
	EnsureProvider(ctx context.Context, p domain.Provider) error
	GetOrCreateSource(ctx context.Context, providerName, descriptor, label string) (*domain.Source, error)
}

// PostStore persists normalized batches with dedup semantics.
type PostStore interface {
	PersistBatch(ctx context.Context, records []domain.CanonicalRecord) (*domain.BatchResult, error)
}

// CursorStore owns the incremental position per (provider, source).
type CursorStore interface {
	LoadCursor(ctx context.Context, providerName string, sourceID int64) (*domain.Cursor, error)
	AdvanceCursor(ctx context.Context, providerName string, sourceID int64, pos domain.CursorPosition, force bool) error
}

// JobStore records fetch-job bookkeeping. Append-only except for the single
// terminal update; the ingestion path never reads it back for decisions.
type JobStore interface {
	BeginJob(ctx context.Context, providerName string, sourceID int64, startedAt time.Time) (int64, error)
	FinishJob(ctx context.Context, jobID int64, status domain.JobStatus, stats domain.JobStats, finishedAt time.Time) error
}

// StatusStore serves the diagnostics snapshot.
type StatusStore interface {
	ListCursors(ctx context.Context, providerName, sourceDescriptor string) ([]domain.Cursor, error)
	ListJobs(ctx context.Context, providerName, sourceDescriptor string, limit int) ([]domain.FetchJob, error)
	StaleRunningJobs(ctx context.Context, olderThan time.Duration) ([]domain.FetchJob, error)
}

// Publisher emits newly inserted posts to downstream consumers. Optional;
// publish failures are counted, never fatal to the cycle.
type Publisher interface {
	Publish(ctx context.Context, post *domain.Post) error
	Close() error
}
