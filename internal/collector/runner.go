package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sonec/internal/config"
	"sonec/internal/domain"
	"sonec/internal/normalize"
	"sonec/internal/provider"
)

// CollectRequest describes one collection cycle. Source (an author handle)
// and Query (a search term) are mutually exclusive scope selectors.
type CollectRequest struct {
	Provider string
	Source   string
	Query    string
	Lang     string
	Since    time.Time
	Until    time.Time

	// PageLimit bounds one provider page; Limit bounds the whole cycle.
	// Zero means the configured defaults and collect-until-exhaustion.
	PageLimit int
	Limit     int

	// MediaDownload requests raw media retrieval. No current provider
	// supports it; it exists so the capability check has teeth.
	MediaDownload bool

	// Strict aborts the cycle on the first normalization error instead of
	// skip-and-count.
	Strict bool

	Auth      map[string]string
	Hints     map[string]string
	Transport http.RoundTripper
}

// Runner orchestrates collection cycles: load cursor, fetch, normalize,
// persist, advance cursor, record job. Cycles for the same (provider,
// source) scope are serialized in-process; the cursor's updated_at fence
// guards against writers elsewhere.
type Runner struct {
	registry  ProviderRegistry
	catalog   CatalogStore
	posts     PostStore
	cursors   CursorStore
	jobs      JobStore
	status    StatusStore
	publisher Publisher
	logger    *slog.Logger
	config    config.CollectConfig
	now       func() time.Time
	scopes    scopeLocks
}

func NewRunner(
	registry ProviderRegistry,
	catalog CatalogStore,
	posts PostStore,
	cursors CursorStore,
	jobs JobStore,
	status StatusStore,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.CollectConfig,
) *Runner {
	return &Runner{
		registry:  registry,
		catalog:   catalog,
		posts:     posts,
		cursors:   cursors,
		jobs:      jobs,
		status:    status,
		publisher: publisher,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// Collect runs one ingestion cycle and returns its summary. Re-running the
// same cycle over an unchanged remote window is safe: the cursor only moves
// after a committed batch, and re-fetched items land as conflicts.
func (r *Runner) Collect(ctx context.Context, req CollectRequest) (*domain.CollectReport, error) {
	providerName := strings.ToLower(strings.TrimSpace(req.Provider))

	adapter, err := r.registry.Resolve(providerName)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req, adapter.Capabilities()); err != nil {
		return nil, err
	}

	session, err := adapter.Configure(provider.Options{
		Auth:      req.Auth,
		Hints:     req.Hints,
		Transport: req.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("configure %s: %w", providerName, err)
	}

	descriptor := req.Source
	if descriptor == "" {
		descriptor = req.Query
	}
	logger := r.logger.With("provider", providerName, "source", descriptor)

	unlock := r.scopes.acquire(providerName + "/" + descriptor)
	defer unlock()

	if err := r.catalog.EnsureProvider(ctx, domain.Provider{
		Name:         providerName,
		Version:      session.Version,
		Capabilities: session.Capabilities,
	}); err != nil {
		return nil, err
	}
	src, err := r.catalog.GetOrCreateSource(ctx, providerName, descriptor, "")
	if err != nil {
		return nil, err
	}

	cursor, err := r.cursors.LoadCursor(ctx, providerName, src.ID)
	if err != nil {
		return nil, err
	}

	jobID, err := r.jobs.BeginJob(ctx, providerName, src.ID, r.now())
	if err != nil {
		return nil, err
	}

	logger.Info("starting collect",
		"job_id", jobID,
		"cursor", cursor.Position.Token,
		"page_limit", r.pageLimit(req, session.Capabilities),
		"limit", req.Limit,
	)

	stats := domain.JobStats{}
	report := &domain.CollectReport{
		JobID:      jobID,
		Provider:   providerName,
		Source:     descriptor,
		LastCursor: cursor.Position.Token,
	}

	filters := provider.Filters{
		Actor: req.Source,
		Query: req.Query,
		Lang:  req.Lang,
		Since: req.Since,
		Until: req.Until,
	}
	pageLimit := r.pageLimit(req, session.Capabilities)
	maxPages := r.config.MaxPagesPerCollect
	position := cursor.Position

	for page := 0; maxPages <= 0 || page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return report, r.failJob(ctx, jobID, stats, report, err)
		}

		batch, err := adapter.FetchSince(ctx, position.Token, pageLimit, filters)
		if err != nil {
			return report, r.failJob(ctx, jobID, stats, report, fmt.Errorf("fetch: %w", err))
		}
		stats.Fetched += len(batch.Items)

		records, normErrs, err := r.normalizeBatch(adapter, batch.Items, providerName, req.Strict || r.config.Strict, logger)
		if err != nil {
			return report, r.failJob(ctx, jobID, stats, report, err)
		}
		stats.Errors += normErrs

		records, exhausted := filterWindow(records, req.Since, req.Until)
		trackWindow(&stats, records)

		result, err := r.posts.PersistBatch(ctx, records)
		if err != nil {
			// The batch rolled back; the cursor stays at the last
			// committed position.
			return report, r.failJob(ctx, jobID, stats, report, err)
		}
		stats.Inserted += result.Inserted
		stats.Conflicted += result.Conflicted
		stats.Errors += r.publish(ctx, result.Posts, logger)

		position = nextPosition(position, batch, records)
		if err := r.cursors.AdvanceCursor(ctx, providerName, src.ID, position, false); err != nil {
			return report, r.failJob(ctx, jobID, stats, report, err)
		}
		report.LastCursor = position.Token

		if exhausted {
			logger.Info("reached window start, stopping pagination")
			break
		}
		if !batch.HasMore {
			break
		}
		if req.Limit > 0 && stats.Fetched >= req.Limit {
			break
		}
	}

	if err := r.jobs.FinishJob(ctx, jobID, domain.JobSucceeded, stats, r.now()); err != nil {
		return report, err
	}

	report.Fetched = stats.Fetched
	report.Inserted = stats.Inserted
	report.Conflicted = stats.Conflicted
	report.Errors = stats.Errors

	logger.Info("collect completed",
		"job_id", jobID,
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"conflicted", stats.Conflicted,
		"errors", stats.Errors,
	)
	return report, nil
}

// validateRequest checks the requested operations against the adapter's
// declared capabilities before anything touches the store.
func validateRequest(req CollectRequest, caps domain.Capabilities) error {
	if req.Source != "" && req.Query != "" {
		return fmt.Errorf("source and query are mutually exclusive: %w", domain.ErrConfiguration)
	}
	if req.Source == "" && req.Query == "" {
		return fmt.Errorf("a source or a query is required: %w", domain.ErrConfiguration)
	}
	if req.Query != "" && !caps.Search {
		return fmt.Errorf("search: %w", domain.ErrUnsupportedOperation)
	}
	if req.Source != "" && !caps.AuthorFeed {
		return fmt.Errorf("author feed: %w", domain.ErrUnsupportedOperation)
	}
	if req.MediaDownload && !caps.MediaDownload {
		return fmt.Errorf("media download: %w", domain.ErrUnsupportedOperation)
	}
	return nil
}

func (r *Runner) pageLimit(req CollectRequest, caps domain.Capabilities) int {
	limit := req.PageLimit
	if limit <= 0 {
		limit = r.config.PageLimit
	}
	if caps.MaxPageLimit > 0 && limit > caps.MaxPageLimit {
		limit = caps.MaxPageLimit
	}
	return limit
}

// normalizeBatch maps raw items to canonical records. The default policy is
// skip-and-count per malformed item; strict mode aborts on the first one.
func (r *Runner) normalizeBatch(adapter provider.Adapter, items []provider.RawItem, providerName string, strict bool, logger *slog.Logger) ([]domain.CanonicalRecord, int, error) {
	collectedAt := r.now()
	records := make([]domain.CanonicalRecord, 0, len(items))
	skipped := 0

	for _, item := range items {
		rec, err := adapter.Normalize(item)
		if err == nil {
			err = normalize.Sanitize(rec, providerName, collectedAt)
		}
		if err != nil {
			if strict {
				return nil, skipped, fmt.Errorf("normalize: %w", err)
			}
			skipped++
			logger.Warn("skipping malformed item", "error", err)
			continue
		}
		records = append(records, *rec)
	}
	return records, skipped, nil
}

func (r *Runner) publish(ctx context.Context, posts []domain.Post, logger *slog.Logger) int {
	if r.publisher == nil {
		return 0
	}
	failures := 0
	for i := range posts {
		if err := r.publisher.Publish(ctx, &posts[i]); err != nil {
			failures++
			logger.Warn("publish failed", "external_id", posts[i].ExternalID, "error", err)
		}
	}
	return failures
}

// nextPosition derives the advanced cursor. The token tracks the last
// non-empty adapter cursor; the high water only ever moves forward.
func nextPosition(prev domain.CursorPosition, batch *provider.Batch, records []domain.CanonicalRecord) domain.CursorPosition {
	next := domain.CursorPosition{
		Token:     prev.Token,
		HighWater: prev.HighWater,
		Pages:     prev.Pages + 1,
	}
	if batch.NextCursor != "" {
		next.Token = batch.NextCursor
	}
	for i := range records {
		if records[i].Post.CreatedAt.After(next.HighWater) {
			next.HighWater = records[i].Post.CreatedAt
		}
	}
	return next
}

// filterWindow applies the requested inclusive time bounds locally, so they
// hold even on fetch paths where the provider cannot apply them upstream.
// exhausted reports a non-empty page lying entirely before since: feeds page
// newest to oldest, so later pages cannot re-enter the window.
func filterWindow(records []domain.CanonicalRecord, since, until time.Time) ([]domain.CanonicalRecord, bool) {
	if since.IsZero() && until.IsZero() {
		return records, false
	}
	kept := records[:0]
	reachedSince := 0
	for i := range records {
		created := records[i].Post.CreatedAt
		if !since.IsZero() && created.Before(since) {
			continue
		}
		reachedSince++
		if !until.IsZero() && created.After(until) {
			continue
		}
		kept = append(kept, records[i])
	}
	exhausted := !since.IsZero() && len(records) > 0 && reachedSince == 0
	return kept, exhausted
}

func trackWindow(stats *domain.JobStats, records []domain.CanonicalRecord) {
	for i := range records {
		created := records[i].Post.CreatedAt
		if stats.WindowStart == nil || created.Before(*stats.WindowStart) {
			t := created
			stats.WindowStart = &t
		}
		if stats.WindowEnd == nil || created.After(*stats.WindowEnd) {
			t := created
			stats.WindowEnd = &t
		}
	}
}

// failJob marks the job failed and returns the original error. The cursor
// is left wherever the last committed batch advanced it. Recording survives
// caller cancellation so no job lingers as running.
func (r *Runner) failJob(ctx context.Context, jobID int64, stats domain.JobStats, report *domain.CollectReport, cause error) error {
	report.Fetched = stats.Fetched
	report.Inserted = stats.Inserted
	report.Conflicted = stats.Conflicted
	report.Errors = stats.Errors

	recordCtx := context.WithoutCancel(ctx)
	if err := r.jobs.FinishJob(recordCtx, jobID, domain.JobFailed, stats, r.now()); err != nil {
		r.logger.Error("failed to record job failure", "job_id", jobID, "error", err)
	}
	if !errors.Is(cause, context.Canceled) {
		r.logger.Error("collect failed", "job_id", jobID, "error", cause)
	}
	return cause
}
