// Package query serves filtered, keyset-paginated reads over the canonical
// store. Pages never skip or duplicate rows while the table grows: the
// (created_at DESC, id DESC) compound ordering plus the strict after-key
// comparison is immune to concurrent inserts of rows sorting after the
// scan's position.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"sonec/internal/domain"
	"sonec/internal/storage/sqlstore"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// PostStore is the read surface the engine needs from storage.
type PostStore interface {
	QueryPosts(ctx context.Context, q sqlstore.PostQuery) ([]domain.PostWithAuthor, error)
}

// Filter is the caller-facing filter set for posts. Author accepts an
// "@handle", an author external id, or a numeric author row id. Callers are
// expected to pass at least a provider or a time bound; the engine serves
// unfiltered scans but does not optimize for them.
type Filter struct {
	Provider string
	Author   string
	Since    time.Time
	Until    time.Time
	Contains string

	// Project narrows the returned rows to the named columns. Unknown
	// names are ignored; empty means the full row shape.
	Project []string
}

// Page is one keyset page of results. Projected is populated instead of the
// full rows when the filter requested a projection, and takes Items' place
// in the JSON form.
type Page struct {
	Items        []domain.PostWithAuthor
	Projected    []map[string]any
	Count        int
	NextAfterKey string
	HasMore      bool
}

func (p *Page) MarshalJSON() ([]byte, error) {
	items := any(p.Items)
	if p.Projected != nil {
		items = p.Projected
	}
	return json.Marshal(struct {
		Items        any    `json:"items"`
		Count        int    `json:"count"`
		NextAfterKey string `json:"next_after_key,omitempty"`
		HasMore      bool   `json:"has_more"`
	}{items, p.Count, p.NextAfterKey, p.HasMore})
}

// projectableColumns maps the selectable column names onto row accessors.
var projectableColumns = map[string]func(*domain.PostWithAuthor) any{
	"id":            func(r *domain.PostWithAuthor) any { return r.ID },
	"provider":      func(r *domain.PostWithAuthor) any { return r.Provider },
	"external_id":   func(r *domain.PostWithAuthor) any { return r.ExternalID },
	"author_id":     func(r *domain.PostWithAuthor) any { return r.AuthorID },
	"author_handle": func(r *domain.PostWithAuthor) any { return r.AuthorHandle },
	"text":          func(r *domain.PostWithAuthor) any { return r.Text },
	"lang":          func(r *domain.PostWithAuthor) any { return r.Lang },
	"created_at":    func(r *domain.PostWithAuthor) any { return r.CreatedAt },
	"collected_at":  func(r *domain.PostWithAuthor) any { return r.CollectedAt },
	"metrics":       func(r *domain.PostWithAuthor) any { return r.Metrics },
	"entities":      func(r *domain.PostWithAuthor) any { return r.Entities },
}

func projectRows(rows []domain.PostWithAuthor, cols []string) []map[string]any {
	projected := make([]map[string]any, len(rows))
	for i := range rows {
		row := make(map[string]any, len(cols))
		for _, col := range cols {
			if accessor, ok := projectableColumns[col]; ok {
				row[col] = accessor(&rows[i])
			}
		}
		projected[i] = row
	}
	return projected
}

type Engine struct {
	store  PostStore
	logger *slog.Logger
}

func NewEngine(store PostStore, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger.With("component", "query")}
}

// Query dispatches by entity name. Only "posts" is queryable; cursors and
// jobs are served by the status operation.
func (e *Engine) Query(ctx context.Context, entity string, f Filter, afterKey string, limit int) (*Page, error) {
	switch strings.ToLower(entity) {
	case "posts":
		return e.Posts(ctx, f, afterKey, limit)
	default:
		return nil, fmt.Errorf("entity %q: %w", entity, domain.ErrUnknownEntity)
	}
}

// Posts returns one page ordered by (created_at DESC, id DESC) and the
// opaque key to resume after the last returned row.
func (e *Engine) Posts(ctx context.Context, f Filter, token string, limit int) (*Page, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	q := sqlstore.PostQuery{
		Provider: f.Provider,
		Since:    f.Since,
		Until:    f.Until,
		Contains: f.Contains,
		Limit:    limit + 1,
	}
	applyAuthorFilter(&q, f.Author)

	if token != "" {
		key, err := decodeAfterKey(token)
		if err != nil {
			return nil, err
		}
		q.HasAfter = true
		q.AfterCreatedAt = key.CreatedAt
		q.AfterID = key.ID
	}

	rows, err := e.store.QueryPosts(ctx, q)
	if err != nil {
		return nil, err
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	page := &Page{Items: rows, Count: len(rows), HasMore: hasMore}
	if len(f.Project) > 0 {
		page.Projected = projectRows(rows, f.Project)
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		page.NextAfterKey = encodeAfterKey(last.CreatedAt, last.ID)
	}

	e.logger.Debug("served page",
		"provider", f.Provider,
		"count", page.Count,
		"has_more", page.HasMore,
	)
	return page, nil
}

// applyAuthorFilter resolves the author selector syntax: "@..." matches the
// canonical handle, anything else the external id, and a numeric selector
// additionally matches the author row id.
func applyAuthorFilter(q *sqlstore.PostQuery, author string) {
	if author == "" {
		return
	}
	if strings.HasPrefix(author, "@") {
		q.AuthorHandle = author
		return
	}
	q.AuthorExternalID = author
	if id, err := strconv.ParseInt(author, 10, 64); err == nil {
		q.AuthorRowID = id
	}
}
