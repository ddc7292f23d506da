package bluesky

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sonec/internal/domain"
	"sonec/internal/provider"
)

// roundTripFunc lets tests script HTTP responses without a listener.
type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type BlueskyTestSuite struct {
	suite.Suite
	logger *slog.Logger
}

func (s *BlueskyTestSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBlueskyTestSuite(t *testing.T) {
	suite.Run(t, new(BlueskyTestSuite))
}

func (s *BlueskyTestSuite) newAdapter(transport http.RoundTripper) *Adapter {
	adapter := New(Config{
		RequestsPerSecond: 1000,
		MaxAttempts:       2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
	}, s.logger)
	_, err := adapter.Configure(provider.Options{Transport: transport})
	s.Require().NoError(err)
	return adapter
}

const authorFeedBody = `{
	"feed": [
		{"post": {
			"uri": "at://did:plc:abc/app.bsky.feed.post/1",
			"cid": "bafy1",
			"author": {"did": "did:plc:abc", "handle": "alice.test", "displayName": "Alice"},
			"record": {"$type": "app.bsky.feed.post", "text": "first #post", "createdAt": "2026-08-01T10:00:00.000Z", "langs": ["en"]},
			"likeCount": 3,
			"replyCount": 1
		}}
	],
	"cursor": "page2"
}`

func (s *BlueskyTestSuite) TestConfigure_AuthValidation() {
	adapter := New(Config{}, s.logger)

	session, err := adapter.Configure(provider.Options{})
	s.NoError(err)
	s.Equal("anonymous", session.AuthState)
	s.Equal(Name, session.Provider)
	s.True(session.Capabilities.Cursor)
	s.False(session.Capabilities.MediaDownload)

	_, err = adapter.Configure(provider.Options{Auth: map[string]string{"identifier": "alice.test"}})
	s.ErrorIs(err, domain.ErrConfiguration)
}

func (s *BlueskyTestSuite) TestConfigure_CreateSession() {
	var sessionCalls int
	var gotAuthz string
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Path, "com.atproto.server.createSession") {
			sessionCalls++
			s.Equal(http.MethodPost, req.Method)
			body, _ := io.ReadAll(req.Body)
			s.JSONEq(`{"identifier":"alice.test","password":"app-password"}`, string(body))
			return jsonResponse(http.StatusOK, `{"accessJwt":"jwt123","did":"did:plc:abc","handle":"alice.test"}`), nil
		}
		gotAuthz = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, authorFeedBody), nil
	})

	adapter := New(Config{RequestsPerSecond: 1000}, s.logger)
	session, err := adapter.Configure(provider.Options{
		Transport: transport,
		Auth:      map[string]string{"identifier": "alice.test", "password": "app-password"},
	})
	s.Require().NoError(err)
	s.Equal("authenticated", session.AuthState)
	s.Equal(1, sessionCalls)

	_, err = adapter.FetchSince(context.Background(), "", 10, provider.Filters{Actor: "@alice.test"})
	s.Require().NoError(err)
	s.Equal("Bearer jwt123", gotAuthz)
}

func (s *BlueskyTestSuite) TestConfigure_BadCredentials() {
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"error":"AuthenticationRequired","message":"Invalid identifier or password"}`), nil
	})

	adapter := New(Config{RequestsPerSecond: 1000}, s.logger)
	_, err := adapter.Configure(provider.Options{
		Transport: transport,
		Auth:      map[string]string{"identifier": "alice.test", "password": "wrong"},
	})
	s.ErrorIs(err, domain.ErrAuthentication)
	s.Empty(adapter.accessJwt)
}

func (s *BlueskyTestSuite) TestFetchSince_AnonymousHasNoAuthHeader() {
	var gotAuthz string
	adapter := s.newAdapter(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotAuthz = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, authorFeedBody), nil
	}))

	_, err := adapter.FetchSince(context.Background(), "", 10, provider.Filters{Actor: "@alice.test"})
	s.Require().NoError(err)
	s.Empty(gotAuthz)
}

func (s *BlueskyTestSuite) TestFetchSince_AuthorFeed() {
	var gotURL string
	adapter := s.newAdapter(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return jsonResponse(http.StatusOK, authorFeedBody), nil
	}))

	batch, err := adapter.FetchSince(context.Background(), "c0", 25, provider.Filters{Actor: "@alice.test"})

	s.NoError(err)
	s.Contains(gotURL, "app.bsky.feed.getAuthorFeed")
	s.Contains(gotURL, "actor=alice.test")
	s.Contains(gotURL, "cursor=c0")
	s.Contains(gotURL, "limit=25")
	s.Len(batch.Items, 1)
	s.Equal("page2", batch.NextCursor)
	s.True(batch.HasMore)
}

func (s *BlueskyTestSuite) TestFetchSince_Search() {
	var gotURL string
	adapter := s.newAdapter(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return jsonResponse(http.StatusOK, `{"posts": [], "cursor": ""}`), nil
	}))

	batch, err := adapter.FetchSince(context.Background(), "", 50, provider.Filters{
		Query: "golang",
		Lang:  "en",
		Since: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})

	s.NoError(err)
	s.Contains(gotURL, "app.bsky.feed.searchPosts")
	s.Contains(gotURL, "q=golang")
	s.Contains(gotURL, "lang=en")
	s.Contains(gotURL, "since=2026-08-01T00%3A00%3A00Z")
	s.Empty(batch.Items)
	s.False(batch.HasMore)
}

func (s *BlueskyTestSuite) TestFetchSince_NeedsScope() {
	adapter := s.newAdapter(roundTripFunc(func(*http.Request) (*http.Response, error) {
		s.FailNow("no request expected")
		return nil, nil
	}))

	_, err := adapter.FetchSince(context.Background(), "", 10, provider.Filters{})

	s.ErrorIs(err, domain.ErrConfiguration)
}

func (s *BlueskyTestSuite) TestFetchSince_AuthFailureSkipsRetry() {
	calls := 0
	adapter := s.newAdapter(roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusForbidden, `{}`), nil
	}))

	_, err := adapter.FetchSince(context.Background(), "", 10, provider.Filters{Actor: "alice.test"})

	s.ErrorIs(err, domain.ErrAuthentication)
	s.Equal(1, calls)
}

func (s *BlueskyTestSuite) TestFetchSince_RateLimited() {
	adapter := s.newAdapter(roundTripFunc(func(*http.Request) (*http.Response, error) {
		resp := jsonResponse(http.StatusTooManyRequests, `{}`)
		resp.Header.Set("Retry-After", "30")
		return resp, nil
	}))

	_, err := adapter.FetchSince(context.Background(), "", 10, provider.Filters{Actor: "alice.test"})

	s.ErrorIs(err, domain.ErrRateLimited)

	var rle *domain.RateLimitError
	s.ErrorAs(err, &rle)
	s.Equal(30*time.Second, rle.RetryAfter)
}

func (s *BlueskyTestSuite) TestFetchSince_RetriesServerErrors() {
	calls := 0
	adapter := s.newAdapter(roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return jsonResponse(http.StatusBadGateway, `{}`), nil
		}
		return jsonResponse(http.StatusOK, authorFeedBody), nil
	}))

	batch, err := adapter.FetchSince(context.Background(), "", 10, provider.Filters{Actor: "alice.test"})

	s.NoError(err)
	s.Equal(2, calls)
	s.Len(batch.Items, 1)
}

func (s *BlueskyTestSuite) TestFetchSince_ExhaustedRetries() {
	calls := 0
	adapter := s.newAdapter(roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusInternalServerError, `{}`), nil
	}))

	_, err := adapter.FetchSince(context.Background(), "", 10, provider.Filters{Actor: "alice.test"})

	s.ErrorIs(err, domain.ErrProviderUnavailable)
	s.Equal(2, calls)
}

func (s *BlueskyTestSuite) TestNormalize() {
	adapter := New(Config{}, s.logger)

	rec, err := adapter.Normalize(provider.RawItem{Provider: Name, Payload: []byte(`{
		"uri": "at://did:plc:abc/app.bsky.feed.post/1",
		"cid": "bafy1",
		"author": {"did": "did:plc:abc", "handle": "alice.test", "displayName": "Alice", "avatar": "https://cdn/a.jpg"},
		"record": {"$type": "app.bsky.feed.post", "text": "first #post", "createdAt": "2026-08-01T10:00:00.000Z", "langs": ["en", "de"]},
		"likeCount": 3,
		"replyCount": 1,
		"repostCount": 2,
		"embed": {
			"$type": "app.bsky.embed.images#view",
			"images": [{"thumb": "https://cdn/t.jpg", "fullsize": "https://cdn/f.jpg", "alt": "a cat",
				"aspectRatio": {"width": 800, "height": 600}}]
		}
	}`)})

	s.NoError(err)
	s.Equal("at://did:plc:abc/app.bsky.feed.post/1", rec.Post.ExternalID)
	s.Equal("did:plc:abc", rec.Author.ExternalID)
	s.Equal("@alice.test", rec.Author.Handle)
	s.Equal("https://cdn/a.jpg", rec.Author.Metadata.AvatarURL)
	s.Equal("en", rec.Post.Lang)
	s.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), rec.Post.CreatedAt)
	s.Equal(3, rec.Post.Metrics.Likes)
	s.Equal(2, rec.Post.Metrics.Reposts)
	s.Require().Len(rec.Media, 1)
	s.Equal("image", rec.Media[0].Kind)
	s.Equal("https://cdn/f.jpg", rec.Media[0].URL)
	s.Equal(800, rec.Media[0].Metadata.Width)
	s.Equal("a cat", rec.Media[0].Metadata.AltText)
}

func (s *BlueskyTestSuite) TestNormalize_Malformed() {
	adapter := New(Config{}, s.logger)

	_, err := adapter.Normalize(provider.RawItem{Provider: Name, Payload: []byte(`{"broken":`)})
	s.ErrorIs(err, domain.ErrNormalization)

	_, err = adapter.Normalize(provider.RawItem{Provider: Name, Payload: []byte(`{"cid": "bafy1"}`)})
	s.ErrorIs(err, domain.ErrNormalization)

	_, err = adapter.Normalize(provider.RawItem{Provider: Name, Payload: []byte(`{
		"uri": "at://x/1",
		"author": {"did": "did:plc:abc"},
		"record": {"text": "no timestamp"}
	}`)})
	s.ErrorIs(err, domain.ErrNormalization)
}
