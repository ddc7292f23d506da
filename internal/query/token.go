package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"sonec/internal/domain"
)

// afterKey is the decoded form of a pagination token: the ordering tuple of
// the last row on the previous page.
type afterKey struct {
	CreatedAt time.Time `json:"t"`
	ID        int64     `json:"id"`
}

func encodeAfterKey(createdAt time.Time, id int64) string {
	raw, _ := json.Marshal(afterKey{CreatedAt: createdAt.UTC(), ID: id})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeAfterKey(token string) (afterKey, error) {
	var key afterKey
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return key, fmt.Errorf("decode after_key: %w", domain.ErrInvalidAfterKey)
	}
	if err := json.Unmarshal(raw, &key); err != nil {
		return key, fmt.Errorf("decode after_key: %w", domain.ErrInvalidAfterKey)
	}
	if key.CreatedAt.IsZero() || key.ID <= 0 {
		return key, fmt.Errorf("after_key missing ordering tuple: %w", domain.ErrInvalidAfterKey)
	}
	return key, nil
}
