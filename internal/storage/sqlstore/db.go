// Package sqlstore implements the canonical store on a relational backend.
// Two drivers are supported: postgres (lib/pq) and sqlite (modernc.org/sqlite).
// The unique constraints and composite indexes created here are the
// correctness boundary of the whole system and are identical on both.
package sqlstore

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// sqlx does not know the modernc driver name out of the box.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the configured backend. Queries throughout the package
// are written with ? placeholders and rebound per driver.
func Open(driverName, dsn string) (*sqlx.DB, error) {
	switch driverName {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driverName, err)
	}

	if driverName == DriverSQLite {
		// Single connection keeps in-memory databases coherent and matches
		// the single-writer target of the engine.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	return db, nil
}

// timeLayout is fixed-width so sqlite TEXT comparison orders timestamps the
// same way postgres orders timestamptz values.
const timeLayout = "2006-01-02 15:04:05.000000+00:00"

// utcTime stores timestamps as fixed-width UTC text on both backends.
type utcTime struct{ time.Time }

func (t utcTime) Value() (driver.Value, error) {
	return t.UTC().Format(timeLayout), nil
}

func (t *utcTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *utcTime) parse(s string) error {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

// nullUTCTime is utcTime for nullable columns.
type nullUTCTime struct {
	Time  time.Time
	Valid bool
}

func (t nullUTCTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time.UTC().Format(timeLayout), nil
}

func (t *nullUTCTime) Scan(src any) error {
	if src == nil {
		t.Valid = false
		return nil
	}
	var inner utcTime
	if err := inner.Scan(src); err != nil {
		return err
	}
	t.Time, t.Valid = inner.Time, true
	return nil
}

func (t nullUTCTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
