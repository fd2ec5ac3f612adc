package domain

import "time"

// OpenSession is a session with a bedtime but no wake time yet.
type OpenSession struct {
	ID        int64     `json:"session_id"`
	SleepTime time.Time `json:"sleep_time"`
}

// FinishedSession is a session with both bedtime and wake time set.
type FinishedSession struct {
	ID        int64     `json:"session_id"`
	SleepTime time.Time `json:"sleep_time"`
	WakeTime  time.Time `json:"wake_time"`
}

// Duration is WakeTime minus SleepTime.
func (f FinishedSession) Duration() time.Duration { return f.WakeTime.Sub(f.SleepTime) }

// SleepStats is the raw aggregate over a user's finished sessions.
// The zero value means "no finished sessions".
type SleepStats struct {
	Sessions       int64   `json:"sessions"`
	TotalSeconds   int64   `json:"total_seconds"`
	AverageSeconds float64 `json:"average_seconds"`
}

// SessionState is where a user currently is in the sleep-tracking workflow.
// Rated states only consider sessions finished on the current day.
type SessionState int

const (
	StateNoSession SessionState = iota
	StateOpen
	StateFinishedUnrated
	StateFinishedRatedNoNote
	StateFinishedRatedWithNote
)

var stateNames = [...]string{
	StateNoSession:             "no_session",
	StateOpen:                  "open",
	StateFinishedUnrated:       "finished_unrated",
	StateFinishedRatedNoNote:   "finished_rated_no_note",
	StateFinishedRatedWithNote: "finished_rated_with_note",
}

// String returns the snake_case name used on the wire.
func (s SessionState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s SessionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Session is a history entry; unset fields are nil.
type Session struct {
	ID        int64      `json:"session_id"`
	SleepTime time.Time  `json:"sleep_time"`
	WakeTime  *time.Time `json:"wake_time,omitempty"`
	Quality   *int       `json:"quality,omitempty"`
}
