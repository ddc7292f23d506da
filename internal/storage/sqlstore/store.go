package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"sonec/internal/domain"
)

// Store exposes the canonical tables. All natural-key lookups are
// get-or-insert; nothing outside one operation's scope caches entities.
type Store struct {
	db  *sqlx.DB
	tm  *TransactionManager
	now func() time.Time
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db, tm: NewTransactionManager(db), now: time.Now}
}

func (s *Store) ext(ctx context.Context) sqlx.ExtContext {
	return executor(ctx, s.db)
}

// EnsureProvider records the provider row, refreshing version and declared
// capabilities. The name itself is immutable once referenced by data.
func (s *Store) EnsureProvider(ctx context.Context, p domain.Provider) error {
	query := s.db.Rebind(`
		INSERT INTO providers (name, version, capabilities)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			version = excluded.version,
			capabilities = excluded.capabilities`)

	_, err := s.ext(ctx).ExecContext(ctx, query, p.Name, p.Version, p.Capabilities)
	if err != nil {
		return fmt.Errorf("ensure provider %s: %w", p.Name, err)
	}
	return nil
}

func (s *Store) ensureProviderRow(ctx context.Context, name string) error {
	query := s.db.Rebind(`
		INSERT INTO providers (name) VALUES (?)
		ON CONFLICT (name) DO NOTHING`)
	if _, err := s.ext(ctx).ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("ensure provider row %s: %w", name, err)
	}
	return nil
}

// GetOrCreateSource resolves the (provider, descriptor) scope, creating it
// lazily on first collection.
func (s *Store) GetOrCreateSource(ctx context.Context, providerName, descriptor, label string) (*domain.Source, error) {
	if err := s.ensureProviderRow(ctx, providerName); err != nil {
		return nil, err
	}

	src := domain.Source{Provider: providerName, Descriptor: descriptor, Label: label}

	insert := s.db.Rebind(`
		INSERT INTO sources (provider, descriptor, label)
		VALUES (?, ?, ?)
		ON CONFLICT (provider, descriptor) DO NOTHING
		RETURNING id`)
	err := s.ext(ctx).QueryRowxContext(ctx, insert, providerName, descriptor, label).Scan(&src.ID)
	if err == nil {
		return &src, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("create source %s/%s: %w", providerName, descriptor, err)
	}

	sel := s.db.Rebind(`SELECT id, label FROM sources WHERE provider = ? AND descriptor = ?`)
	if err := s.ext(ctx).QueryRowxContext(ctx, sel, providerName, descriptor).Scan(&src.ID, &src.Label); err != nil {
		return nil, fmt.Errorf("load source %s/%s: %w", providerName, descriptor, err)
	}
	return &src, nil
}

// upsertAuthor get-or-inserts by (provider, external_id), refreshing the
// descriptive fields on conflict. Called inside the batch transaction.
func (s *Store) upsertAuthor(ctx context.Context, author domain.Author) (int64, error) {
	query := s.db.Rebind(`
		INSERT INTO authors (provider, external_id, handle, display_name, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (provider, external_id) DO UPDATE SET
			handle = excluded.handle,
			display_name = excluded.display_name,
			metadata = excluded.metadata
		RETURNING id`)

	var id int64
	err := s.ext(ctx).QueryRowxContext(ctx, query,
		author.Provider,
		author.ExternalID,
		author.Handle,
		author.DisplayName,
		author.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert author %s/%s: %w", author.Provider, author.ExternalID, err)
	}
	return id, nil
}
