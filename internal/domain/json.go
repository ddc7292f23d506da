package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON blob columns (capabilities, metadata, metrics, entities, stats,
// cursor positions) are stored as serialized text so the schema stays
// portable across postgres and sqlite.

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	return string(b), nil
}

func jsonScan(dst any, src any) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(s, dst)
	case string:
		return json.Unmarshal([]byte(s), dst)
	default:
		return fmt.Errorf("cannot scan %T into json column", src)
	}
}

func (c Capabilities) Value() (driver.Value, error)   { return jsonValue(c) }
func (c *Capabilities) Scan(src any) error            { return jsonScan(c, src) }
func (m AuthorMetadata) Value() (driver.Value, error) { return jsonValue(m) }
func (m *AuthorMetadata) Scan(src any) error          { return jsonScan(m, src) }
func (m Metrics) Value() (driver.Value, error)        { return jsonValue(m) }
func (m *Metrics) Scan(src any) error                 { return jsonScan(m, src) }
func (e Entities) Value() (driver.Value, error)       { return jsonValue(e) }
func (e *Entities) Scan(src any) error                { return jsonScan(e, src) }
func (m MediaMetadata) Value() (driver.Value, error)  { return jsonValue(m) }
func (m *MediaMetadata) Scan(src any) error           { return jsonScan(m, src) }
func (s JobStats) Value() (driver.Value, error)       { return jsonValue(s) }
func (s *JobStats) Scan(src any) error                { return jsonScan(s, src) }
func (p CursorPosition) Value() (driver.Value, error) { return jsonValue(p) }
func (p *CursorPosition) Scan(src any) error          { return jsonScan(p, src) }
