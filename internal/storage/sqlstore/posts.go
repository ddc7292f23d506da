package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sonec/internal/domain"
)

type postRow struct {
	ID          int64           `db:"id"`
	Provider    string          `db:"provider"`
	ExternalID  string          `db:"external_id"`
	AuthorID    int64           `db:"author_id"`
	Text        string          `db:"text"`
	Lang        string          `db:"lang"`
	CreatedAt   utcTime         `db:"created_at"`
	CollectedAt utcTime         `db:"collected_at"`
	Metrics     domain.Metrics  `db:"metrics"`
	Entities    domain.Entities `db:"entities"`
}

func (r postRow) toDomain() domain.Post {
	return domain.Post{
		ID:          r.ID,
		Provider:    r.Provider,
		ExternalID:  r.ExternalID,
		AuthorID:    r.AuthorID,
		Text:        r.Text,
		Lang:        r.Lang,
		CreatedAt:   r.CreatedAt.Time,
		CollectedAt: r.CollectedAt.Time,
		Metrics:     r.Metrics,
		Entities:    r.Entities,
	}
}

// PersistBatch writes a normalized batch atomically. Get-or-create of
// provider, source and author rows happens in the same transaction as the
// post inserts; a (provider, external_id) collision is counted, not failed,
// and the existing row is left untouched. Media is attached only to posts
// newly inserted by this call. Any other failure rolls the whole batch back.
func (s *Store) PersistBatch(ctx context.Context, records []domain.CanonicalRecord) (*domain.BatchResult, error) {
	result := &domain.BatchResult{}
	if len(records) == 0 {
		return result, nil
	}

	err := s.tm.WithTransaction(ctx, func(txCtx context.Context) error {
		seenProviders := make(map[string]bool)
		authorIDs := make(map[string]int64)

		for i := range records {
			rec := &records[i]

			if !seenProviders[rec.Post.Provider] {
				if err := s.ensureProviderRow(txCtx, rec.Post.Provider); err != nil {
					return err
				}
				seenProviders[rec.Post.Provider] = true
			}

			authorKey := rec.Author.Provider + "\x00" + rec.Author.ExternalID
			authorID, ok := authorIDs[authorKey]
			if !ok {
				var err error
				authorID, err = s.upsertAuthor(txCtx, rec.Author)
				if err != nil {
					return err
				}
				authorIDs[authorKey] = authorID
			}

			post := rec.Post
			post.AuthorID = authorID

			postID, inserted, err := s.insertPost(txCtx, post)
			if err != nil {
				return err
			}
			if !inserted {
				result.Conflicted++
				continue
			}

			post.ID = postID
			for _, media := range rec.Media {
				media.PostID = postID
				if err := s.insertMedia(txCtx, media); err != nil {
					return err
				}
			}
			result.Inserted++
			result.Posts = append(result.Posts, post)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransactionFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("persist batch: %w: %v", domain.ErrTransactionFailure, err)
	}
	return result, nil
}

// insertPost attempts the dedup-guarded insert. First writer wins: a natural
// key collision reports inserted=false and changes nothing.
func (s *Store) insertPost(ctx context.Context, post domain.Post) (int64, bool, error) {
	query := s.db.Rebind(`
		INSERT INTO posts (
			provider, external_id, author_id, text, lang,
			created_at, collected_at, metrics, entities
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, external_id) DO NOTHING
		RETURNING id`)

	var id int64
	err := s.ext(ctx).QueryRowxContext(ctx, query,
		post.Provider,
		post.ExternalID,
		post.AuthorID,
		post.Text,
		post.Lang,
		utcTime{post.CreatedAt},
		utcTime{post.CollectedAt},
		post.Metrics,
		post.Entities,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert post %s/%s: %w", post.Provider, post.ExternalID, err)
	}
	return id, true, nil
}

func (s *Store) insertMedia(ctx context.Context, media domain.Media) error {
	query := s.db.Rebind(`
		INSERT INTO media (post_id, kind, url, metadata)
		VALUES (?, ?, ?, ?)`)
	_, err := s.ext(ctx).ExecContext(ctx, query, media.PostID, media.Kind, media.URL, media.Metadata)
	if err != nil {
		return fmt.Errorf("insert media for post %d: %w", media.PostID, err)
	}
	return nil
}

// GetPost loads one post by natural key.
func (s *Store) GetPost(ctx context.Context, providerName, externalID string) (*domain.Post, error) {
	query := s.db.Rebind(`
		SELECT id, provider, external_id, author_id, text, lang,
		       created_at, collected_at, metrics, entities
		FROM posts WHERE provider = ? AND external_id = ?`)

	var row postRow
	if err := s.ext(ctx).QueryRowxContext(ctx, query, providerName, externalID).StructScan(&row); err != nil {
		return nil, fmt.Errorf("get post %s/%s: %w", providerName, externalID, err)
	}
	post := row.toDomain()
	return &post, nil
}

// MediaForPost returns the stored media metadata of one post.
func (s *Store) MediaForPost(ctx context.Context, postID int64) ([]domain.Media, error) {
	query := s.db.Rebind(`
		SELECT id, post_id, kind, url, metadata
		FROM media WHERE post_id = ? ORDER BY id`)

	var out []domain.Media
	rows, err := s.ext(ctx).QueryxContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("load media for post %d: %w", postID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Media
		if err := rows.StructScan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountPosts returns the number of posts for a provider, used by
// diagnostics and tests.
func (s *Store) CountPosts(ctx context.Context, providerName string) (int, error) {
	query := s.db.Rebind(`SELECT COUNT(*) FROM posts WHERE provider = ?`)
	var n int
	if err := s.ext(ctx).QueryRowxContext(ctx, query, providerName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}
