package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sonec/internal/domain"
	"sonec/internal/normalize"
	"sonec/internal/provider"
)

const (
	Name           = "bluesky"
	Version        = "0.2.0"
	DefaultBaseURL = "https://public.api.bsky.app/xrpc"

	authorFeedPath    = "/app.bsky.feed.getAuthorFeed"
	searchPostsPath   = "/app.bsky.feed.searchPosts"
	createSessionPath = "/com.atproto.server.createSession"
)

// Config holds Bluesky adapter configuration.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
}

// Adapter implements provider.Adapter against the public Bluesky XRPC API.
type Adapter struct {
	httpClient     *http.Client
	baseURL        string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	limiter        *rate.Limiter
	logger         *slog.Logger
	accessJwt      string
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a Bluesky adapter.
func New(cfg Config, logger *slog.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 3
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 30 * time.Second
	}

	return &Adapter{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:         logger.With("provider", Name),
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Capabilities() domain.Capabilities {
	return domain.Capabilities{
		Cursor:        true,
		Search:        true,
		AuthorFeed:    true,
		LangFilter:    true,
		TimeBounds:    "inclusive",
		MediaMetadata: true,
		MediaDownload: false,
		MaxPageLimit:  100,
	}
}

// Configure establishes the session. Anonymous access is the default; an
// auth section, when present, must carry both identifier and password, and
// the adapter exchanges them for an access token sent on every request.
func (a *Adapter) Configure(opts provider.Options) (*provider.Session, error) {
	if opts.Transport != nil {
		a.httpClient.Transport = opts.Transport
	}
	if base := opts.Hints["base_url"]; base != "" {
		a.baseURL = strings.TrimRight(base, "/")
	}

	authState := "anonymous"
	if len(opts.Auth) > 0 {
		id, pw := opts.Auth["identifier"], opts.Auth["password"]
		if id == "" || pw == "" {
			return nil, fmt.Errorf("bluesky auth requires identifier and password: %w", domain.ErrConfiguration)
		}
		if err := a.createSession(id, pw); err != nil {
			return nil, err
		}
		authState = "authenticated"
	}

	return &provider.Session{
		Provider:     Name,
		Version:      Version,
		AuthState:    authState,
		Capabilities: a.Capabilities(),
	}, nil
}

// createSession exchanges the credentials for an access token. The client
// timeout bounds the call.
func (a *Adapter) createSession(identifier, password string) error {
	payload, err := json.Marshal(sessionRequest{Identifier: identifier, Password: password})
	if err != nil {
		return fmt.Errorf("encode session request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, a.baseURL+createSessionPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sonec/"+Version)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute session request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("create session: status %d: %w", resp.StatusCode, domain.ErrAuthentication)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return fmt.Errorf("create session: status %d: %w", resp.StatusCode, domain.ErrProviderUnavailable)
	default:
		return fmt.Errorf("create session: unexpected status %d: %w", resp.StatusCode, decodeAPIError(resp))
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("decode session response: %w", err)
	}
	if session.AccessJwt == "" {
		return fmt.Errorf("session response without access token: %w", domain.ErrAuthentication)
	}
	a.accessJwt = session.AccessJwt

	a.logger.Info("authenticated session established", "handle", session.Handle)
	return nil
}

// FetchSince retrieves one page after the given opaque cursor. Actor scopes
// go through getAuthorFeed, term scopes through searchPosts.
func (a *Adapter) FetchSince(ctx context.Context, cursor string, limit int, filters provider.Filters) (*provider.Batch, error) {
	if limit <= 0 || limit > a.Capabilities().MaxPageLimit {
		limit = a.Capabilities().MaxPageLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var path string
	switch {
	case filters.Actor != "":
		path = authorFeedPath
		params.Set("actor", strings.TrimPrefix(filters.Actor, "@"))
	case filters.Query != "":
		path = searchPostsPath
		params.Set("q", filters.Query)
		if filters.Lang != "" {
			params.Set("lang", filters.Lang)
		}
		if !filters.Since.IsZero() {
			params.Set("since", normalize.FormatUTC(filters.Since))
		}
		if !filters.Until.IsZero() {
			params.Set("until", normalize.FormatUTC(filters.Until))
		}
	default:
		return nil, fmt.Errorf("bluesky fetch needs an actor or a search term: %w", domain.ErrConfiguration)
	}

	body, err := a.fetchPage(ctx, a.baseURL+path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var items []provider.RawItem
	var next string
	if path == authorFeedPath {
		var resp feedResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode author feed: %w", err)
		}
		for _, entry := range resp.Feed {
			items = append(items, provider.RawItem{Provider: Name, Payload: entry.Post})
		}
		next = resp.Cursor
	} else {
		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode search response: %w", err)
		}
		for _, post := range resp.Posts {
			items = append(items, provider.RawItem{Provider: Name, Payload: post})
		}
		next = resp.Cursor
	}

	return &provider.Batch{
		Items:      items,
		NextCursor: next,
		HasMore:    next != "" && len(items) > 0,
	}, nil
}

func (a *Adapter) fetchPage(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := a.doRequest(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Auth and rate-limit conditions go straight to the caller; retry
		// scheduling for those is not this adapter's call.
		if errors.Is(err, domain.ErrAuthentication) || errors.Is(err, domain.ErrRateLimited) {
			return nil, err
		}
		if attempt == a.maxAttempts {
			break
		}

		backoff := a.calculateBackoff(attempt)
		a.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", a.maxAttempts, lastErr)
}

func (a *Adapter) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sonec/"+Version)
	if a.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+a.accessJwt)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrAuthentication)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &domain.RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrProviderUnavailable)
	default:
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, decodeAPIError(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (a *Adapter) calculateBackoff(attempt int) time.Duration {
	backoff := a.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > a.maxBackoff {
		backoff = a.maxBackoff
	}
	return backoff
}

// Normalize maps one Bluesky post view into the canonical record shape.
func (a *Adapter) Normalize(item provider.RawItem) (*domain.CanonicalRecord, error) {
	var view postView
	if err := json.Unmarshal(item.Payload, &view); err != nil {
		return nil, fmt.Errorf("decode post view: %v: %w", err, domain.ErrNormalization)
	}
	if view.URI == "" {
		return nil, fmt.Errorf("post view without uri: %w", domain.ErrNormalization)
	}

	createdAt, err := normalize.ParseUTC(view.Record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", view.URI, err)
	}

	handle := view.Author.Handle
	if handle != "" && !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}

	lang := ""
	if len(view.Record.Langs) > 0 {
		lang = view.Record.Langs[0]
	}

	rec := &domain.CanonicalRecord{
		Author: domain.Author{
			Provider:    Name,
			ExternalID:  view.Author.DID,
			Handle:      handle,
			DisplayName: view.Author.DisplayName,
			Metadata:    domain.AuthorMetadata{AvatarURL: view.Author.Avatar},
		},
		Post: domain.Post{
			Provider:   Name,
			ExternalID: view.URI,
			Text:       view.Record.Text,
			Lang:       lang,
			CreatedAt:  createdAt,
			Metrics: domain.Metrics{
				Likes:   view.LikeCount,
				Replies: view.ReplyCount,
				Reposts: view.RepostCount,
				Quotes:  view.QuoteCount,
			},
		},
	}

	if view.Embed != nil && strings.HasPrefix(view.Embed.Type, "app.bsky.embed.images") {
		for _, img := range view.Embed.Images {
			media := domain.Media{
				Kind: "image",
				URL:  img.Fullsize,
				Metadata: domain.MediaMetadata{
					ThumbnailURL: img.Thumb,
					AltText:      img.Alt,
				},
			}
			if img.AspectRatio != nil {
				media.Metadata.Width = img.AspectRatio.Width
				media.Metadata.Height = img.AspectRatio.Height
			}
			rec.Media = append(rec.Media, media)
		}
	}
	return rec, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

func decodeAPIError(resp *http.Response) error {
	var body apiError
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s: %s", body.Error, body.Message)
	}
	return errors.New("provider error")
}
