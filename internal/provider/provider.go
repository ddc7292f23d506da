package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sonec/internal/domain"
)

// RawItem is one provider payload fragment as fetched from the remote API,
// before normalization. The payload shape is meaningful only to the adapter
// that produced it.
type RawItem struct {
	Provider string
	Payload  json.RawMessage
}

// Options configures an adapter session.
type Options struct {
	// Auth carries credential material (identifier, app password, token).
	// Empty means anonymous access where the provider allows it.
	Auth map[string]string
	// Hints carries provider-specific operational knobs.
	Hints map[string]string
	// Transport overrides the HTTP transport, used by tests.
	Transport http.RoundTripper
}

// Session describes a configured adapter.
type Session struct {
	Provider     string
	Version      string
	AuthState    string
	Capabilities domain.Capabilities
	Warnings     []string
}

// Filters scope a fetch. Actor and Query are mutually exclusive; unsupported
// keys must be rejected by the runner before the adapter is called.
type Filters struct {
	Actor string
	Query string
	Lang  string
	Since time.Time
	Until time.Time
}

// Batch is the result of one FetchSince call.
type Batch struct {
	Items      []RawItem
	NextCursor string
	HasMore    bool
}

// Adapter is the contract every provider implements. FetchSince must be a
// pure read relative to the provider's remote state: calling it repeatedly
// with the same cursor is safe.
type Adapter interface {
	Name() string
	Capabilities() domain.Capabilities

	// Configure validates options and initializes the session. Fails with
	// domain.ErrConfiguration when required credentials or options are
	// missing or invalid.
	Configure(opts Options) (*Session, error)

	// FetchSince returns the next batch after the given opaque cursor.
	FetchSince(ctx context.Context, cursor string, limit int, filters Filters) (*Batch, error)

	// Normalize maps one raw item into the canonical record shape. Fails
	// with domain.ErrNormalization scoped to this item.
	Normalize(item RawItem) (*domain.CanonicalRecord, error)
}
