package domain

import "time"

// Provider identifies an origin social network. The name is the natural key;
// rows are created on first use and never deleted while referenced.
type Provider struct {
	Name         string       `db:"name"`
	Version      string       `db:"version"`
	Capabilities Capabilities `db:"capabilities"`
}

// Capabilities describes the operations a provider adapter supports. The
// runner validates a collect request against these before calling the
// adapter, so unsupported operations fail fast instead of degrading.
type Capabilities struct {
	Cursor        bool   `json:"supports_cursor"`
	Search        bool   `json:"supports_search"`
	AuthorFeed    bool   `json:"supports_author_feed"`
	LangFilter    bool   `json:"supports_lang_filter"`
	TimeBounds    string `json:"supports_time_bounds,omitempty"`
	MediaMetadata bool   `json:"supports_media"`
	MediaDownload bool   `json:"supports_media_download"`
	MaxPageLimit  int    `json:"max_page_limit,omitempty"`
}

// Source is a collection scope within a provider: a handle, a search term,
// a list identifier. (provider, descriptor) is unique.
type Source struct {
	ID         int64  `db:"id"`
	Provider   string `db:"provider"`
	Descriptor string `db:"descriptor"`
	Label      string `db:"label"`
}

// Author is the canonical author record, unique by (provider, external_id).
type Author struct {
	ID          int64          `db:"id"`
	Provider    string         `db:"provider"`
	ExternalID  string         `db:"external_id"`
	Handle      string         `db:"handle"`
	DisplayName string         `db:"display_name"`
	Metadata    AuthorMetadata `db:"metadata"`
}

// AuthorMetadata holds optional descriptive fields captured from the
// provider payload.
type AuthorMetadata struct {
	AvatarURL   string `json:"avatar_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Post is the central canonical entity. Deduplication is enforced by the
// unique constraint on (provider, external_id); CreatedAt is never mutated
// after first insert.
type Post struct {
	ID          int64     `db:"id" json:"id"`
	Provider    string    `db:"provider" json:"provider"`
	ExternalID  string    `db:"external_id" json:"external_id"`
	AuthorID    int64     `db:"author_id" json:"author_id"`
	Text        string    `db:"text" json:"text"`
	Lang        string    `db:"lang" json:"lang,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	CollectedAt time.Time `db:"collected_at" json:"collected_at"`
	Metrics     Metrics   `db:"metrics" json:"metrics"`
	Entities    Entities  `db:"entities" json:"entities"`
}

// Metrics holds the open-ended numeric counters of a post. Absent counters
// stay zero and are omitted from the stored blob.
type Metrics struct {
	Likes   int `json:"like_count,omitempty"`
	Replies int `json:"reply_count,omitempty"`
	Reposts int `json:"repost_count,omitempty"`
	Quotes  int `json:"quote_count,omitempty"`
	Views   int `json:"view_count,omitempty"`
}

// Entities holds structures extracted from the post text and payload.
type Entities struct {
	Hashtags []string  `json:"hashtags"`
	Mentions []Mention `json:"mentions"`
	Links    []string  `json:"links"`
}

// Mention references another account by handle and/or external id.
type Mention struct {
	Handle     string `json:"handle,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// Media is descriptive metadata of an attachment; binary content is never
// stored.
type Media struct {
	ID       int64         `db:"id"`
	PostID   int64         `db:"post_id"`
	Kind     string        `db:"kind"`
	URL      string        `db:"url"`
	Metadata MediaMetadata `db:"metadata"`
}

// MediaMetadata holds optional descriptive attributes of a media item.
type MediaMetadata struct {
	MimeType     string `json:"mime_type,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	DurationMS   int    `json:"duration_ms,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	AltText      string `json:"alt_text,omitempty"`
}

// PostWithAuthor is the read-side row shape returned by queries: the post
// joined with its author's handle.
type PostWithAuthor struct {
	Post
	AuthorHandle string `db:"author_handle" json:"author_handle,omitempty"`
}

// CanonicalRecord is the normalized shape handed from the normalizer to the
// persistence layer: one author, one post, zero or more media items.
type CanonicalRecord struct {
	Author Author
	Post   Post
	Media  []Media
}
