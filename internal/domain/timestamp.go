package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the stored text form of every timestamp column.
// Fixed width and zone-free, so string order equals chronological order and
// SQLite's DATE() yields the calendar day.
const TimestampLayout = "2006-01-02T15:04:05"

// DateLayout is the calendar-day form compared against DATE(column).
const DateLayout = "2006-01-02"

// Timestamp is a wall-clock instant with second precision, stored as TEXT in
// TimestampLayout. It carries no zone: the storage layer pins it to the
// configured location on the way in (NewTimestamp) and out (In).
type Timestamp struct {
	wall time.Time // wall-clock fields held in UTC
}

// NewTimestamp converts t to loc and keeps its wall clock, truncated to the
// second. A nil loc keeps t's own location.
func NewTimestamp(t time.Time, loc *time.Location) Timestamp {
	if loc != nil {
		t = t.In(loc)
	}
	return Timestamp{wall: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// ParseTimestamp parses the stored text form.
func ParseTimestamp(s string) (Timestamp, error) {
	// Rows written by other tools may carry fractional seconds or a space separator.
	for _, layout := range []string{TimestampLayout, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999"} {
		if w, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{wall: w.Truncate(time.Second)}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("domain: invalid timestamp %q", s)
}

// In returns the instant the wall clock denotes in loc.
func (ts Timestamp) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	w := ts.wall
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), 0, loc)
}

// IsZero reports whether ts was never set.
func (ts Timestamp) IsZero() bool { return ts.wall.IsZero() }

// String returns the stored text form.
func (ts Timestamp) String() string { return ts.wall.Format(TimestampLayout) }

// Date returns the calendar day in DateLayout.
func (ts Timestamp) Date() string { return ts.wall.Format(DateLayout) }

// GormDataType pins the column type for migrations.
func (Timestamp) GormDataType() string { return "text" }

// Value implements driver.Valuer.
func (ts Timestamp) Value() (driver.Value, error) {
	return ts.String(), nil
}

// Scan implements sql.Scanner. Drivers that decode DATETIME columns hand back
// time.Time; its wall clock is kept as-is.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case string:
		p, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*ts = p
	case []byte:
		p, err := ParseTimestamp(string(v))
		if err != nil {
			return err
		}
		*ts = p
	case time.Time:
		*ts = NewTimestamp(v, nil)
	case nil:
		*ts = Timestamp{}
	default:
		return fmt.Errorf("domain: cannot scan %T into Timestamp", src)
	}
	return nil
}

// MarshalJSON encodes the stored text form.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON decodes the stored text form.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	p, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = p
	return nil
}
