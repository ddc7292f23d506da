package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sonec/internal/domain"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := Open(DriverSQLite, filepath.Join(s.T().TempDir(), "store.db"))
	s.Require().NoError(err)
	s.T().Cleanup(func() { db.Close() })

	s.Require().NoError(EnsureSchema(s.ctx, db))
	s.store = New(db)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func testRecord(extID string, createdAt time.Time) domain.CanonicalRecord {
	return domain.CanonicalRecord{
		Author: domain.Author{
			Provider:   "bluesky",
			ExternalID: "did:plc:alice",
			Handle:     "@alice.test",
		},
		Post: domain.Post{
			Provider:    "bluesky",
			ExternalID:  extID,
			Text:        "text of " + extID,
			Lang:        "en",
			CreatedAt:   createdAt,
			CollectedAt: createdAt.Add(time.Minute),
			Entities:    domain.Entities{Hashtags: []string{}, Mentions: []domain.Mention{}, Links: []string{}},
		},
	}
}

func (s *StoreTestSuite) source(descriptor string) *domain.Source {
	s.Require().NoError(s.store.EnsureProvider(s.ctx, domain.Provider{Name: "bluesky", Version: "0.2.0"}))
	src, err := s.store.GetOrCreateSource(s.ctx, "bluesky", descriptor, "")
	s.Require().NoError(err)
	return src
}

func (s *StoreTestSuite) TestGetOrCreateSource_Idempotent() {
	first := s.source("@alice.test")
	second := s.source("@alice.test")

	s.Equal(first.ID, second.ID)
	s.Equal("@alice.test", second.Descriptor)

	other, err := s.store.GetOrCreateSource(s.ctx, "bluesky", "golang", "")
	s.Require().NoError(err)
	s.NotEqual(first.ID, other.ID)
}

func (s *StoreTestSuite) TestEnsureProvider_RefreshesCapabilities() {
	s.Require().NoError(s.store.EnsureProvider(s.ctx, domain.Provider{Name: "bluesky", Version: "0.1.0"}))
	s.Require().NoError(s.store.EnsureProvider(s.ctx, domain.Provider{
		Name:         "bluesky",
		Version:      "0.2.0",
		Capabilities: domain.Capabilities{Cursor: true, Search: true},
	}))

	src, err := s.store.GetOrCreateSource(s.ctx, "bluesky", "@alice.test", "")
	s.NoError(err)
	s.NotZero(src.ID)
}

func (s *StoreTestSuite) TestPersistBatch_InsertAndConflict() {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	result, err := s.store.PersistBatch(s.ctx, []domain.CanonicalRecord{
		testRecord("at://feed/1", base),
		testRecord("at://feed/2", base.Add(time.Minute)),
	})
	s.Require().NoError(err)
	s.Equal(2, result.Inserted)
	s.Equal(0, result.Conflicted)
	s.Len(result.Posts, 2)
	s.NotZero(result.Posts[0].ID)

	// The identical batch again: every row is a conflict, nothing changes.
	result, err = s.store.PersistBatch(s.ctx, []domain.CanonicalRecord{
		testRecord("at://feed/1", base),
		testRecord("at://feed/2", base.Add(time.Minute)),
	})
	s.Require().NoError(err)
	s.Equal(0, result.Inserted)
	s.Equal(2, result.Conflicted)
	s.Empty(result.Posts)

	count, err := s.store.CountPosts(s.ctx, "bluesky")
	s.NoError(err)
	s.Equal(2, count)
}

func (s *StoreTestSuite) TestPersistBatch_MixedBatch() {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.store.PersistBatch(s.ctx, []domain.CanonicalRecord{testRecord("at://feed/1", base)})
	s.Require().NoError(err)

	result, err := s.store.PersistBatch(s.ctx, []domain.CanonicalRecord{
		testRecord("at://feed/1", base),
		testRecord("at://feed/3", base.Add(time.Hour)),
	})
	s.Require().NoError(err)
	s.Equal(1, result.Inserted)
	s.Equal(1, result.Conflicted)
	s.Len(result.Posts, 1)
	s.Equal("at://feed/3", result.Posts[0].ExternalID)
}

func (s *StoreTestSuite) TestPersistBatch_FirstWriteWins() {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.store.PersistBatch(s.ctx, []domain.CanonicalRecord{testRecord("at://feed/1", base)})
	s.Require().NoError(err)

	// A re-fetched copy claiming a different creation time must not touch
	// the stored row.
	altered := testRecord("at://feed/1", base.Add(3*time.Hour))
	altered.Post.Text = "revised text"
	result, err := s.store.PersistBatch(s.ctx, []domain.CanonicalRecord{altered})
	s.Require().NoError(err)
	s.Equal(1, result.Conflicted)

	stored, err := s.store.GetPost(s.ctx, "bluesky", "at://feed/1")
	s.Require().NoError(err)
	s.True(stored.CreatedAt.Equal(base))
	s.Equal("text of at://feed/1", stored.Text)
}

func (s *StoreTestSuite) TestPersistBatch_SharedAuthor() {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	result, err := s.store.PersistBatch(s.ctx, []domain.CanonicalRecord{
		testRecord("at://feed/1", base),
		testRecord("at://feed/2", base.Add(time.Minute)),
	})
	s.Require().NoError(err)
	s.Equal(result.Posts[0].AuthorID, result.Posts[1].AuthorID)
}

func (s *StoreTestSuite) TestPersistBatch_Media() {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rec := testRecord("at://feed/1", base)
	rec.Media = []domain.Media{
		{Kind: "image", URL: "https://cdn/a.jpg", Metadata: domain.MediaMetadata{Width: 800, Height: 600, AltText: "a"}},
		{Kind: "image", URL: "https://cdn/b.jpg"},
	}

	result, err := s.store.PersistBatch(s.ctx, []domain.CanonicalRecord{rec})
	s.Require().NoError(err)
	s.Require().Len(result.Posts, 1)

	media, err := s.store.MediaForPost(s.ctx, result.Posts[0].ID)
	s.NoError(err)
	s.Require().Len(media, 2)
	s.Equal("https://cdn/a.jpg", media[0].URL)
	s.Equal(800, media[0].Metadata.Width)
}

func (s *StoreTestSuite) TestGetPost_Unknown() {
	_, err := s.store.GetPost(s.ctx, "bluesky", "at://nope")
	s.Error(err)
}

func (s *StoreTestSuite) TestCursor_DefaultStart() {
	src := s.source("@alice.test")

	cur, err := s.store.LoadCursor(s.ctx, "bluesky", src.ID)
	s.NoError(err)
	s.True(cur.Position.IsZero())
	s.Zero(cur.ID)
}

func (s *StoreTestSuite) TestCursor_AdvanceAndReload() {
	src := s.source("@alice.test")
	pos := domain.CursorPosition{
		Token:     "cursor-1",
		HighWater: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Pages:     1,
	}

	s.Require().NoError(s.store.AdvanceCursor(s.ctx, "bluesky", src.ID, pos, false))

	cur, err := s.store.LoadCursor(s.ctx, "bluesky", src.ID)
	s.NoError(err)
	s.Equal("cursor-1", cur.Position.Token)
	s.True(cur.Position.HighWater.Equal(pos.HighWater))
	s.Equal("@alice.test", cur.Source)

	next := domain.CursorPosition{
		Token:     "cursor-2",
		HighWater: pos.HighWater.Add(time.Hour),
		Pages:     2,
	}
	s.Require().NoError(s.store.AdvanceCursor(s.ctx, "bluesky", src.ID, next, false))

	cur, err = s.store.LoadCursor(s.ctx, "bluesky", src.ID)
	s.NoError(err)
	s.Equal("cursor-2", cur.Position.Token)
	s.Equal(2, cur.Position.Pages)
}

func (s *StoreTestSuite) TestCursor_RegressionRejected() {
	src := s.source("@alice.test")
	high := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.AdvanceCursor(s.ctx, "bluesky", src.ID,
		domain.CursorPosition{Token: "ahead", HighWater: high}, false))

	err := s.store.AdvanceCursor(s.ctx, "bluesky", src.ID,
		domain.CursorPosition{Token: "behind", HighWater: high.Add(-time.Hour)}, false)
	s.ErrorIs(err, domain.ErrCursorRegression)

	cur, err := s.store.LoadCursor(s.ctx, "bluesky", src.ID)
	s.NoError(err)
	s.Equal("ahead", cur.Position.Token)
}

func (s *StoreTestSuite) TestCursor_ForceOverridesRegression() {
	src := s.source("@alice.test")
	high := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.AdvanceCursor(s.ctx, "bluesky", src.ID,
		domain.CursorPosition{Token: "ahead", HighWater: high}, false))
	s.Require().NoError(s.store.AdvanceCursor(s.ctx, "bluesky", src.ID,
		domain.CursorPosition{Token: "rewound", HighWater: high.Add(-24 * time.Hour)}, true))

	cur, err := s.store.LoadCursor(s.ctx, "bluesky", src.ID)
	s.NoError(err)
	s.Equal("rewound", cur.Position.Token)
}

func (s *StoreTestSuite) TestCursor_EqualHighWaterIsNotRegression() {
	src := s.source("@alice.test")
	high := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.AdvanceCursor(s.ctx, "bluesky", src.ID,
		domain.CursorPosition{Token: "a", HighWater: high, Pages: 1}, false))
	s.NoError(s.store.AdvanceCursor(s.ctx, "bluesky", src.ID,
		domain.CursorPosition{Token: "b", HighWater: high, Pages: 2}, false))
}

func (s *StoreTestSuite) TestListCursors_Filtered() {
	alice := s.source("@alice.test")
	golang := s.source("golang")
	high := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.AdvanceCursor(s.ctx, "bluesky", alice.ID,
		domain.CursorPosition{Token: "a", HighWater: high}, false))
	s.Require().NoError(s.store.AdvanceCursor(s.ctx, "bluesky", golang.ID,
		domain.CursorPosition{Token: "g", HighWater: high}, false))

	all, err := s.store.ListCursors(s.ctx, "bluesky", "")
	s.NoError(err)
	s.Len(all, 2)

	one, err := s.store.ListCursors(s.ctx, "bluesky", "golang")
	s.NoError(err)
	s.Require().Len(one, 1)
	s.Equal("g", one[0].Position.Token)
}

func (s *StoreTestSuite) TestJobs_Lifecycle() {
	src := s.source("@alice.test")
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	jobID, err := s.store.BeginJob(s.ctx, "bluesky", src.ID, started)
	s.Require().NoError(err)
	s.NotZero(jobID)

	stats := domain.JobStats{Fetched: 10, Inserted: 8, Conflicted: 2}
	s.Require().NoError(s.store.FinishJob(s.ctx, jobID, domain.JobSucceeded, stats, started.Add(time.Minute)))

	jobs, err := s.store.ListJobs(s.ctx, "bluesky", "@alice.test", 10)
	s.NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(domain.JobSucceeded, jobs[0].Status)
	s.Equal(8, jobs[0].Stats.Inserted)
	s.Require().NotNil(jobs[0].FinishedAt)
	s.True(jobs[0].FinishedAt.After(jobs[0].StartedAt))
}

func (s *StoreTestSuite) TestFinishJob_Unknown() {
	err := s.store.FinishJob(s.ctx, 999, domain.JobFailed, domain.JobStats{}, time.Now())
	s.Error(err)
}

func (s *StoreTestSuite) TestListJobs_NewestFirst() {
	src := s.source("@alice.test")
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		id, err := s.store.BeginJob(s.ctx, "bluesky", src.ID, base.Add(time.Duration(i)*time.Hour))
		s.Require().NoError(err)
		s.Require().NoError(s.store.FinishJob(s.ctx, id, domain.JobSucceeded, domain.JobStats{}, base.Add(time.Duration(i)*time.Hour+time.Minute)))
	}

	jobs, err := s.store.ListJobs(s.ctx, "bluesky", "", 2)
	s.NoError(err)
	s.Require().Len(jobs, 2)
	s.True(jobs[0].StartedAt.After(jobs[1].StartedAt))
}

func (s *StoreTestSuite) TestStaleRunningJobs() {
	src := s.source("@alice.test")
	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	s.store.now = func() time.Time { return now }

	staleID, err := s.store.BeginJob(s.ctx, "bluesky", src.ID, now.Add(-3*time.Hour))
	s.Require().NoError(err)
	freshID, err := s.store.BeginJob(s.ctx, "bluesky", src.ID, now.Add(-10*time.Minute))
	s.Require().NoError(err)
	doneID, err := s.store.BeginJob(s.ctx, "bluesky", src.ID, now.Add(-5*time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.store.FinishJob(s.ctx, doneID, domain.JobFailed, domain.JobStats{}, now.Add(-4*time.Hour)))

	stale, err := s.store.StaleRunningJobs(s.ctx, time.Hour)
	s.NoError(err)
	s.Require().Len(stale, 1)
	s.Equal(staleID, stale[0].ID)
	s.NotEqual(freshID, stale[0].ID)
}

func (s *StoreTestSuite) TestTransaction_RollbackDiscardsWrites() {
	err := s.store.tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := s.store.EnsureProvider(ctx, domain.Provider{Name: "doomed"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Require().Error(err)

	// The provider row from the aborted transaction must be gone.
	var count int
	s.Require().NoError(s.store.db.GetContext(s.ctx, &count,
		`SELECT COUNT(*) FROM providers WHERE name = 'doomed'`))
	s.Equal(0, count)
}
