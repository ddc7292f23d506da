package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sonec/internal/domain"
)

type cursorRow struct {
	ID        int64                 `db:"id"`
	Provider  string                `db:"provider"`
	SourceID  int64                 `db:"source_id"`
	Source    string                `db:"source"`
	Position  domain.CursorPosition `db:"position"`
	UpdatedAt utcTime               `db:"updated_at"`
}

func (r cursorRow) toDomain() domain.Cursor {
	return domain.Cursor{
		ID:        r.ID,
		Provider:  r.Provider,
		SourceID:  r.SourceID,
		Source:    r.Source,
		Position:  r.Position,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

// LoadCursor returns the incremental position for (provider, source), or a
// default-start cursor when the scope has never been collected. The row is
// created lazily by the first advance, not by the load.
func (s *Store) LoadCursor(ctx context.Context, providerName string, sourceID int64) (*domain.Cursor, error) {
	query := s.db.Rebind(`
		SELECT c.id, c.provider, c.source_id, src.descriptor AS source, c.position, c.updated_at
		FROM cursors c
		JOIN sources src ON src.id = c.source_id
		WHERE c.provider = ? AND c.source_id = ?`)

	var row cursorRow
	err := s.ext(ctx).QueryRowxContext(ctx, query, providerName, sourceID).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Cursor{Provider: providerName, SourceID: sourceID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cursor %s/%d: %w", providerName, sourceID, err)
	}
	cur := row.toDomain()
	return &cur, nil
}

// AdvanceCursor moves the scope's position forward. A position ordered
// strictly before the current one fails with ErrCursorRegression unless
// force is set; force is the corrective override and callers must log it.
// The updated_at fence rejects concurrent writers instead of silently
// overwriting them.
func (s *Store) AdvanceCursor(ctx context.Context, providerName string, sourceID int64, pos domain.CursorPosition, force bool) error {
	sel := s.db.Rebind(`
		SELECT id, position, updated_at FROM cursors
		WHERE provider = ? AND source_id = ?`)

	var cur struct {
		ID        int64                 `db:"id"`
		Position  domain.CursorPosition `db:"position"`
		UpdatedAt utcTime               `db:"updated_at"`
	}
	err := s.ext(ctx).QueryRowxContext(ctx, sel, providerName, sourceID).StructScan(&cur)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		insert := s.db.Rebind(`
			INSERT INTO cursors (provider, source_id, position, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (provider, source_id) DO NOTHING`)
		res, err := s.ext(ctx).ExecContext(ctx, insert, providerName, sourceID, pos, utcTime{s.now()})
		if err != nil {
			return fmt.Errorf("create cursor %s/%d: %w", providerName, sourceID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("cursor %s/%d created concurrently: %w", providerName, sourceID, domain.ErrTransactionFailure)
		}
		return nil

	case err != nil:
		return fmt.Errorf("read cursor %s/%d: %w", providerName, sourceID, err)
	}

	if !force && pos.Before(cur.Position) {
		return fmt.Errorf("cursor %s/%d: new high water %s precedes %s: %w",
			providerName, sourceID,
			pos.HighWater.Format("2006-01-02T15:04:05Z"),
			cur.Position.HighWater.Format("2006-01-02T15:04:05Z"),
			domain.ErrCursorRegression)
	}

	update := s.db.Rebind(`
		UPDATE cursors SET position = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?`)
	res, err := s.ext(ctx).ExecContext(ctx, update, pos, utcTime{s.now()}, cur.ID, cur.UpdatedAt)
	if err != nil {
		return fmt.Errorf("advance cursor %s/%d: %w", providerName, sourceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cursor %s/%d advanced concurrently: %w", providerName, sourceID, domain.ErrTransactionFailure)
	}
	return nil
}

// ListCursors returns cursor rows for diagnostics, optionally filtered by
// provider and source descriptor.
func (s *Store) ListCursors(ctx context.Context, providerName, sourceDescriptor string) ([]domain.Cursor, error) {
	query := `
		SELECT c.id, c.provider, c.source_id, src.descriptor AS source, c.position, c.updated_at
		FROM cursors c
		JOIN sources src ON src.id = c.source_id`
	var args []any
	var where []string
	if providerName != "" {
		where = append(where, "c.provider = ?")
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
	query += " ORDER BY c.provider, src.descriptor"

	rows, err := s.ext(ctx).QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list cursors: %w", err)
	}
	defer rows.Close()

	var out []domain.Cursor
	for rows.Next() {
		var row cursorRow
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		out = append(out, row.toDomain())
	}
	return out, rows.Err()
}
