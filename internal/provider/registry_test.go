package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"sonec/internal/domain"
)

type stubAdapter struct {
	name string
}

func (s *stubAdapter) Name() string                        { return s.name }
func (s *stubAdapter) Capabilities() domain.Capabilities   { return domain.Capabilities{} }
func (s *stubAdapter) Configure(Options) (*Session, error) { return &Session{Provider: s.name}, nil }
func (s *stubAdapter) FetchSince(context.Context, string, int, Filters) (*Batch, error) {
	return &Batch{}, nil
}
func (s *stubAdapter) Normalize(RawItem) (*domain.CanonicalRecord, error) {
	return &domain.CanonicalRecord{}, nil
}

type RegistryTestSuite struct {
	suite.Suite
	registry *Registry
}

func (s *RegistryTestSuite) SetupTest() {
	s.registry = NewRegistry()
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) TestRegisterAndResolve() {
	err := s.registry.Register("bluesky", func() Adapter { return &stubAdapter{name: "bluesky"} })
	s.NoError(err)

	adapter, err := s.registry.Resolve("bluesky")
	s.NoError(err)
	s.Equal("bluesky", adapter.Name())
}

func (s *RegistryTestSuite) TestResolveIsCaseInsensitive() {
	s.Require().NoError(s.registry.Register("BlueSky", func() Adapter { return &stubAdapter{name: "bluesky"} }))

	adapter, err := s.registry.Resolve("  BLUESKY ")
	s.NoError(err)
	s.Equal("bluesky", adapter.Name())
}

func (s *RegistryTestSuite) TestDuplicateRegistration() {
	factory := func() Adapter { return &stubAdapter{name: "bluesky"} }

	s.Require().NoError(s.registry.Register("bluesky", factory))

	err := s.registry.Register("Bluesky", factory)
	s.ErrorIs(err, domain.ErrRegistrationConflict)
}

func (s *RegistryTestSuite) TestRegisterRejectsBadInput() {
	err := s.registry.Register("", func() Adapter { return &stubAdapter{} })
	s.ErrorIs(err, domain.ErrConfiguration)

	err = s.registry.Register("bluesky", nil)
	s.ErrorIs(err, domain.ErrConfiguration)
}

func (s *RegistryTestSuite) TestResolveUnknown() {
	_, err := s.registry.Resolve("mastodon")
	s.ErrorIs(err, domain.ErrUnknownProvider)
}

func (s *RegistryTestSuite) TestResolveBuildsFreshInstances() {
	s.Require().NoError(s.registry.Register("bluesky", func() Adapter { return &stubAdapter{name: "bluesky"} }))

	first, err := s.registry.Resolve("bluesky")
	s.Require().NoError(err)
	second, err := s.registry.Resolve("bluesky")
	s.Require().NoError(err)

	s.NotSame(first, second)
}

func (s *RegistryTestSuite) TestNamesSorted() {
	s.Require().NoError(s.registry.Register("mastodon", func() Adapter { return &stubAdapter{name: "mastodon"} }))
	s.Require().NoError(s.registry.Register("bluesky", func() Adapter { return &stubAdapter{name: "bluesky"} }))

	s.Equal([]string{"bluesky", "mastodon"}, s.registry.Names())
}
