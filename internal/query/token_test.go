package query

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sonec/internal/domain"
)

type TokenTestSuite struct {
	suite.Suite
}

func TestTokenTestSuite(t *testing.T) {
	suite.Run(t, new(TokenTestSuite))
}

func (s *TokenTestSuite) TestRoundTrip() {
	created := time.Date(2026, 8, 1, 10, 30, 0, 123456000, time.UTC)

	token := encodeAfterKey(created, 42)
	s.NotEmpty(token)

	key, err := decodeAfterKey(token)
	s.NoError(err)
	s.True(key.CreatedAt.Equal(created))
	s.Equal(int64(42), key.ID)
}

func (s *TokenTestSuite) TestEncodeNormalizesToUTC() {
	created := time.Date(2026, 8, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	key, err := decodeAfterKey(encodeAfterKey(created, 7))
	s.NoError(err)
	s.Equal(time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC), key.CreatedAt)
}

func (s *TokenTestSuite) TestDecodeRejectsGarbage() {
	_, err := decodeAfterKey("not base64!!!")
	s.ErrorIs(err, domain.ErrInvalidAfterKey)

	_, err = decodeAfterKey(base64.RawURLEncoding.EncodeToString([]byte("not json")))
	s.ErrorIs(err, domain.ErrInvalidAfterKey)
}

func (s *TokenTestSuite) TestDecodeRejectsIncompleteTuple() {
	_, err := decodeAfterKey(base64.RawURLEncoding.EncodeToString([]byte(`{"id":5}`)))
	s.ErrorIs(err, domain.ErrInvalidAfterKey)

	_, err = decodeAfterKey(base64.RawURLEncoding.EncodeToString([]byte(`{"t":"2026-08-01T00:00:00Z","id":0}`)))
	s.ErrorIs(err, domain.ErrInvalidAfterKey)
}
