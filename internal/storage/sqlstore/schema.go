package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS providers (
	name         TEXT PRIMARY KEY,
	version      TEXT NOT NULL DEFAULT '',
	capabilities JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS sources (
	id         BIGSERIAL PRIMARY KEY,
	provider   TEXT NOT NULL REFERENCES providers(name),
	descriptor TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	UNIQUE (provider, descriptor)
);

CREATE TABLE IF NOT EXISTS authors (
	id           BIGSERIAL PRIMARY KEY,
	provider     TEXT NOT NULL REFERENCES providers(name),
	external_id  TEXT NOT NULL,
	handle       TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	metadata     JSONB NOT NULL DEFAULT '{}',
	UNIQUE (provider, external_id)
);

CREATE TABLE IF NOT EXISTS posts (
	id           BIGSERIAL PRIMARY KEY,
	provider     TEXT NOT NULL REFERENCES providers(name),
	external_id  TEXT NOT NULL,
	author_id    BIGINT NOT NULL REFERENCES authors(id),
	text         TEXT NOT NULL DEFAULT '',
	lang         TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	collected_at TEXT NOT NULL,
	metrics      JSONB NOT NULL DEFAULT '{}',
	entities     JSONB NOT NULL DEFAULT '{}',
	UNIQUE (provider, external_id)
);
CREATE INDEX IF NOT EXISTS idx_posts_provider_created ON posts (provider, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS media (
	id       BIGSERIAL PRIMARY KEY,
	post_id  BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	kind     TEXT NOT NULL,
	url      TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_media_post ON media (post_id);

CREATE TABLE IF NOT EXISTS fetch_jobs (
	id          BIGSERIAL PRIMARY KEY,
	provider    TEXT NOT NULL REFERENCES providers(name),
	source_id   BIGINT NOT NULL REFERENCES sources(id),
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	status      TEXT NOT NULL,
	stats       JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_fetch_jobs_started ON fetch_jobs (provider, started_at DESC);

CREATE TABLE IF NOT EXISTS cursors (
	id         BIGSERIAL PRIMARY KEY,
	provider   TEXT NOT NULL REFERENCES providers(name),
	source_id  BIGINT NOT NULL REFERENCES sources(id),
	position   JSONB NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL,
	UNIQUE (provider, source_id)
);`

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS providers (
	name         TEXT PRIMARY KEY,
	version      TEXT NOT NULL DEFAULT '',
	capabilities TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS sources (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	provider   TEXT NOT NULL REFERENCES providers(name),
	descriptor TEXT NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	UNIQUE (provider, descriptor)
);

CREATE TABLE IF NOT EXISTS authors (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	provider     TEXT NOT NULL REFERENCES providers(name),
	external_id  TEXT NOT NULL,
	handle       TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	metadata     TEXT NOT NULL DEFAULT '{}',
	UNIQUE (provider, external_id)
);

CREATE TABLE IF NOT EXISTS posts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	provider     TEXT NOT NULL REFERENCES providers(name),
	external_id  TEXT NOT NULL,
	author_id    INTEGER NOT NULL REFERENCES authors(id),
	text         TEXT NOT NULL DEFAULT '',
	lang         TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	collected_at TEXT NOT NULL,
	metrics      TEXT NOT NULL DEFAULT '{}',
	entities     TEXT NOT NULL DEFAULT '{}',
	UNIQUE (provider, external_id)
);
CREATE INDEX IF NOT EXISTS idx_posts_provider_created ON posts (provider, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS media (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id  INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	kind     TEXT NOT NULL,
	url      TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_media_post ON media (post_id);

CREATE TABLE IF NOT EXISTS fetch_jobs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	provider    TEXT NOT NULL REFERENCES providers(name),
	source_id   INTEGER NOT NULL REFERENCES sources(id),
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	status      TEXT NOT NULL,
	stats       TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_fetch_jobs_started ON fetch_jobs (provider, started_at DESC);

CREATE TABLE IF NOT EXISTS cursors (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	provider   TEXT NOT NULL REFERENCES providers(name),
	source_id  INTEGER NOT NULL REFERENCES sources(id),
	position   TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL,
	UNIQUE (provider, source_id)
);`

// EnsureSchema creates the canonical tables, unique constraints and indexes
// for the connected backend. Idempotent.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	schema := schemaSQLite
	if db.DriverName() == DriverPostgres {
		schema = schemaPostgres
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
