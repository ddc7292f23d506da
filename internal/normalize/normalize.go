// Package normalize owns the canonical normalization contract: every raw
// provider item passes through Sanitize before it may reach persistence.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"sonec/internal/domain"
)

var (
	hashtagRe = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_]+)`)
	mentionRe = regexp.MustCompile(`(?:^|\s)@([\w.-]+\w)`)
	linkRe    = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// ParseUTC parses an RFC 3339 timestamp into an aware UTC time. Timestamps
// without a zone are taken as UTC.
func ParseUTC(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp: %w", domain.ErrNormalization)
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, domain.ErrNormalization)
}

// FormatUTC renders t as RFC 3339 with a Z suffix, second precision.
func FormatUTC(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// ExtractEntities derives hashtags, mentions and links from post text. Used
// when the provider payload carries no structured facets.
func ExtractEntities(text string) domain.Entities {
	ents := domain.Entities{
		Hashtags: []string{},
		Mentions: []domain.Mention{},
		Links:    []string{},
	}
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		ents.Hashtags = append(ents.Hashtags, strings.ToLower(m[1]))
	}
	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		ents.Mentions = append(ents.Mentions, domain.Mention{Handle: "@" + m[1]})
	}
	ents.Links = append(ents.Links, linkRe.FindAllString(text, -1)...)
	if ents.Links == nil {
		ents.Links = []string{}
	}
	return ents
}

// Sanitize enforces the canonical record contract in place: stable external
// ids, aware UTC timestamps, and defined defaults instead of holes. An
// unstable or missing identity is a normalization defect of the item, never
// a persistence defect.
func Sanitize(rec *domain.CanonicalRecord, providerName string, collectedAt time.Time) error {
	if rec == nil {
		return fmt.Errorf("nil record: %w", domain.ErrNormalization)
	}
	if strings.TrimSpace(rec.Post.ExternalID) == "" {
		return fmt.Errorf("post without external id: %w", domain.ErrNormalization)
	}
	if strings.TrimSpace(rec.Author.ExternalID) == "" {
		return fmt.Errorf("post %s has no author id: %w", rec.Post.ExternalID, domain.ErrNormalization)
	}
	if rec.Post.CreatedAt.IsZero() {
		return fmt.Errorf("post %s has no created_at: %w", rec.Post.ExternalID, domain.ErrNormalization)
	}

	rec.Author.Provider = providerName
	rec.Post.Provider = providerName
	rec.Post.CreatedAt = rec.Post.CreatedAt.UTC()
	rec.Post.CollectedAt = collectedAt.UTC()

	if rec.Post.Entities.Hashtags == nil && rec.Post.Entities.Mentions == nil && rec.Post.Entities.Links == nil {
		rec.Post.Entities = ExtractEntities(rec.Post.Text)
	}
	if rec.Post.Entities.Hashtags == nil {
		rec.Post.Entities.Hashtags = []string{}
	}
	if rec.Post.Entities.Mentions == nil {
		rec.Post.Entities.Mentions = []domain.Mention{}
	}
	if rec.Post.Entities.Links == nil {
		rec.Post.Entities.Links = []string{}
	}
	if rec.Media == nil {
		rec.Media = []domain.Media{}
	}
	for i := range rec.Media {
		if rec.Media[i].Kind == "" {
			rec.Media[i].Kind = "image"
		}
	}
	return nil
}
