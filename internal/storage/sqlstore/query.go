package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sonec/internal/domain"
)

// PostQuery is the filter set for keyset reads over posts. After* carry the
// decoded pagination key; rows strictly after that key in
// (created_at DESC, id DESC) order are returned.
type PostQuery struct {
	Provider         string
	AuthorHandle     string
	AuthorExternalID string
	AuthorRowID      int64
	Since            time.Time
	Until            time.Time
	Contains         string

	HasAfter       bool
	AfterCreatedAt time.Time
	AfterID        int64

	Limit int
}

type postWithAuthorRow struct {
	ID           int64           `db:"id"`
	Provider     string          `db:"provider"`
	ExternalID   string          `db:"external_id"`
	AuthorID     int64           `db:"author_id"`
	Text         string          `db:"text"`
	Lang         string          `db:"lang"`
	CreatedAt    utcTime         `db:"created_at"`
	CollectedAt  utcTime         `db:"collected_at"`
	Metrics      domain.Metrics  `db:"metrics"`
	Entities     domain.Entities `db:"entities"`
	AuthorHandle string          `db:"author_handle"`
}

// QueryPosts runs one keyset page scan. Ordering is fixed at
// (created_at DESC, id DESC); the compound key keeps pagination stable under
// concurrent inserts. Offset pagination is deliberately not offered.
func (s *Store) QueryPosts(ctx context.Context, q PostQuery) ([]domain.PostWithAuthor, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT p.id, p.provider, p.external_id, p.author_id, p.text, p.lang,
		       p.created_at, p.collected_at, p.metrics, p.entities,
		       a.handle AS author_handle
		FROM posts p
		JOIN authors a ON a.id = p.author_id
		WHERE 1=1`)
	var args []any

	if q.Provider != "" {
		sb.WriteString(" AND p.provider = ?")
		args = append(args, q.Provider)
	}
	if q.AuthorHandle != "" {
		sb.WriteString(" AND a.handle = ?")
		args = append(args, q.AuthorHandle)
	}
	if q.AuthorExternalID != "" {
		if q.AuthorRowID > 0 {
			sb.WriteString(" AND (a.external_id = ? OR p.author_id = ?)")
			args = append(args, q.AuthorExternalID, q.AuthorRowID)
		} else {
			sb.WriteString(" AND a.external_id = ?")
			args = append(args, q.AuthorExternalID)
		}
	}
	if !q.Since.IsZero() {
		sb.WriteString(" AND p.created_at >= ?")
		args = append(args, utcTime{q.Since})
	}
	if !q.Until.IsZero() {
		sb.WriteString(" AND p.created_at <= ?")
		args = append(args, utcTime{q.Until})
	}
	if q.Contains != "" {
		sb.WriteString(" AND LOWER(p.text) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Contains)+"%")
	}
	if q.HasAfter {
		sb.WriteString(" AND (p.created_at < ? OR (p.created_at = ? AND p.id < ?))")
		key := utcTime{q.AfterCreatedAt}
		args = append(args, key, key, q.AfterID)
	}

	sb.WriteString(" ORDER BY p.created_at DESC, p.id DESC LIMIT ?")
	args = append(args, q.Limit)

	rows, err := s.ext(ctx).QueryxContext(ctx, s.db.Rebind(sb.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var out []domain.PostWithAuthor
	for rows.Next() {
		var row postWithAuthorRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		out = append(out, domain.PostWithAuthor{
			Post: domain.Post{
				ID:          row.ID,
				Provider:    row.Provider,
				ExternalID:  row.ExternalID,
				AuthorID:    row.AuthorID,
				Text:        row.Text,
				Lang:        row.Lang,
				CreatedAt:   row.CreatedAt.Time,
				CollectedAt: row.CollectedAt.Time,
				Metrics:     row.Metrics,
				Entities:    row.Entities,
			},
			AuthorHandle: row.AuthorHandle,
		})
	}
	return out, rows.Err()
}
