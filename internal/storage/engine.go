// Package storage is the sleep tracker's persistence boundary.
//
// An Engine wraps a *gorm.DB and exposes the operations the session
// lifecycle needs. Every public method is one unit of work: it runs inside a
// single database transaction, so a fault anywhere in the method rolls back
// everything the method wrote. Faults are logged here, once, with the
// operation name and ids, and returned as *Error (errors.Is(err, ErrStorage)).
//
// "Not found" is never an error. Lookups return a nil pointer, and updates
// addressed by an id that does not exist succeed without touching anything.
//
// Timestamps cross this boundary as time.Time and are stored as wall-clock
// text in the Engine's location (see domain.Timestamp).
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
	"github.com/tbourn/go-sleep-tracker/internal/repo"
)

var (
	opsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sleeptracker_storage_operations_total",
			Help: "Storage engine operations by name and result (ok|error).",
		},
		[]string{"op", "result"},
	)

	opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sleeptracker_storage_operation_duration_seconds",
			Help:    "Duration of storage engine operations in seconds.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(opsTotal, opDuration)
}

// Engine runs transactional operations against the sleep tracker schema.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	db  *gorm.DB
	loc *time.Location
	log zerolog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLocation sets the zone whose wall clock is stored and whose calendar
// date is used by date filters. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an Engine over db. Call EnsureSchema before first use.
func New(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		db:  db,
		loc: time.Local,
		log: log.Logger,
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With().Str("component", "storage").Logger()
	return e
}

// Location is the zone timestamps are stored in.
func (e *Engine) Location() *time.Location { return e.loc }

// run executes fn in one transaction and does the bookkeeping shared by every
// operation. fields are logged alongside a fault as key/value pairs.
func (e *Engine) run(ctx context.Context, op string, fn func(tx *gorm.DB) error, fields ...any) error {
	start := time.Now()
	err := e.db.WithContext(ctx).Transaction(fn)
	opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		opsTotal.WithLabelValues(op, "error").Inc()
		e.log.Error().
			Err(err).
			Str("op", op).
			Fields(fields).
			Msg("storage operation failed")
		return &Error{Op: op, Err: err}
	}
	opsTotal.WithLabelValues(op, "ok").Inc()
	return nil
}

// EnsureSchema creates the users, sleep_records and notes tables (plus the
// HTTP idempotency table) when missing. It is safe to call on every start; an
// error here should stop the process.
func (e *Engine) EnsureSchema(ctx context.Context) error {
	return e.run(ctx, "ensure_schema", func(tx *gorm.DB) error {
		return repo.AutoMigrate(tx)
	})
}

// UpsertUser records a user the first time it is seen. An existing user keeps
// its original name.
func (e *Engine) UpsertUser(ctx context.Context, id int64, name string) error {
	return e.run(ctx, "upsert_user", func(tx *gorm.DB) error {
		_, err := repo.InsertUserIfAbsent(ctx, tx, id, name)
		return err
	}, "user_id", id)
}

// StartSession opens a session at sleepTime and returns its id. It does not
// check for an already open session; that rule lives with the caller.
func (e *Engine) StartSession(ctx context.Context, userID int64, sleepTime time.Time) (int64, error) {
	var id int64
	err := e.run(ctx, "start_session", func(tx *gorm.DB) error {
		rec, err := repo.CreateSleepRecord(ctx, tx, userID, domain.NewTimestamp(sleepTime, e.loc))
		if err != nil {
			return err
		}
		id = rec.ID
		return nil
	}, "user_id", userID)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// EndSession sets the wake time of sessionID. Unknown ids are a no-op.
func (e *Engine) EndSession(ctx context.Context, sessionID int64, wakeTime time.Time) error {
	return e.run(ctx, "end_session", func(tx *gorm.DB) error {
		_, err := repo.SetWakeTime(ctx, tx, sessionID, domain.NewTimestamp(wakeTime, e.loc))
		return err
	}, "session_id", sessionID)
}

// SetQuality stores quality on sessionID without range checking. Unknown ids
// are a no-op.
func (e *Engine) SetQuality(ctx context.Context, sessionID int64, quality int) error {
	return e.run(ctx, "set_quality", func(tx *gorm.DB) error {
		_, err := repo.SetSleepQuality(ctx, tx, sessionID, quality)
		return err
	}, "session_id", sessionID, "quality", quality)
}

// UpsertNote creates or replaces the note of sessionID. Blank text is refused
// with (false, nil) before the database is touched.
func (e *Engine) UpsertNote(ctx context.Context, sessionID int64, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, nil
	}
	err := e.run(ctx, "upsert_note", func(tx *gorm.DB) error {
		return repo.UpsertNote(ctx, tx, sessionID, text)
	}, "session_id", sessionID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindOpenSession returns the user's newest session without a wake time, or
// nil.
func (e *Engine) FindOpenSession(ctx context.Context, userID int64) (*domain.OpenSession, error) {
	var out *domain.OpenSession
	err := e.run(ctx, "find_open_session", func(tx *gorm.DB) error {
		rec, err := repo.LatestOpenRecord(ctx, tx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &domain.OpenSession{ID: rec.ID, SleepTime: rec.SleepTime.In(e.loc)}
		return nil
	}, "user_id", userID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindFinishedUnrated returns the user's newest finished session that has no
// quality yet. A non-zero on restricts the search to sessions that woke up on
// on's calendar date (in the Engine's location).
func (e *Engine) FindFinishedUnrated(ctx context.Context, userID int64, on time.Time) (*domain.FinishedSession, error) {
	return e.findFinished(ctx, "find_finished_unrated", userID, false, on)
}

// FindLatestRated is FindFinishedUnrated for sessions that do have a quality.
// Whether a note exists does not matter.
func (e *Engine) FindLatestRated(ctx context.Context, userID int64, on time.Time) (*domain.FinishedSession, error) {
	return e.findFinished(ctx, "find_latest_rated", userID, true, on)
}

func (e *Engine) findFinished(ctx context.Context, op string, userID int64, rated bool, on time.Time) (*domain.FinishedSession, error) {
	day := ""
	if !on.IsZero() {
		day = on.In(e.loc).Format(domain.DateLayout)
	}

	var out *domain.FinishedSession
	err := e.run(ctx, op, func(tx *gorm.DB) error {
		rec, err := repo.LatestFinishedRecord(ctx, tx, userID, rated, day)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &domain.FinishedSession{
			ID:        rec.ID,
			SleepTime: rec.SleepTime.In(e.loc),
			WakeTime:  rec.WakeTime.In(e.loc),
		}
		return nil
	}, "user_id", userID, "day", day)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindNote returns the note text of sessionID, or nil when it has none.
func (e *Engine) FindNote(ctx context.Context, sessionID int64) (*string, error) {
	var out *string
	err := e.run(ctx, "find_note", func(tx *gorm.DB) error {
		n, err := repo.GetNote(ctx, tx, sessionID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &n.Text
		return nil
	}, "session_id", sessionID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeStatistics aggregates the user's finished sessions. A user with none
// gets the zero SleepStats.
func (e *Engine) ComputeStatistics(ctx context.Context, userID int64) (domain.SleepStats, error) {
	var out domain.SleepStats
	err := e.run(ctx, "compute_statistics", func(tx *gorm.DB) error {
		s, err := repo.SleepStats(ctx, tx, userID)
		out = s
		return err
	}, "user_id", userID)
	if err != nil {
		return domain.SleepStats{}, err
	}
	return out, nil
}

// FindSession returns the user's session with the given id, or nil when the
// id is unknown or belongs to someone else.
func (e *Engine) FindSession(ctx context.Context, userID, sessionID int64) (*domain.Session, error) {
	var out *domain.Session
	err := e.run(ctx, "find_session", func(tx *gorm.DB) error {
		r, err := repo.GetSleepRecord(ctx, tx, userID, sessionID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		s := e.toSession(*r)
		out = &s
		return nil
	}, "user_id", userID, "session_id", sessionID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) toSession(r domain.SleepRecord) domain.Session {
	s := domain.Session{ID: r.ID, SleepTime: r.SleepTime.In(e.loc), Quality: r.SleepQuality}
	if r.WakeTime != nil {
		w := r.WakeTime.In(e.loc)
		s.WakeTime = &w
	}
	return s
}

// ListSessions returns one page of the user's sessions, newest bedtime first.
func (e *Engine) ListSessions(ctx context.Context, userID int64, offset, limit int) ([]domain.Session, error) {
	var out []domain.Session
	err := e.run(ctx, "list_sessions", func(tx *gorm.DB) error {
		recs, err := repo.ListSleepRecordsPage(ctx, tx, userID, offset, limit)
		if err != nil {
			return err
		}
		out = make([]domain.Session, 0, len(recs))
		for _, r := range recs {
			out = append(out, e.toSession(r))
		}
		return nil
	}, "user_id", userID, "offset", offset, "limit", limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountSessions returns how many sessions (open or finished) the user has.
func (e *Engine) CountSessions(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := e.run(ctx, "count_sessions", func(tx *gorm.DB) error {
		var err error
		n, err = repo.CountSleepRecords(ctx, tx, userID)
		return err
	}, "user_id", userID)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SessionsVersion fingerprints the user's sessions for cache validation.
func (e *Engine) SessionsVersion(ctx context.Context, userID int64) (repo.RecordsVersion, error) {
	var v repo.RecordsVersion
	err := e.run(ctx, "sessions_version", func(tx *gorm.DB) error {
		var err error
		v, err = repo.SleepRecordsVersion(ctx, tx, userID)
		return err
	}, "user_id", userID)
	if err != nil {
		return repo.RecordsVersion{}, err
	}
	return v, nil
}

// FindReplay returns the session recorded for a previous request carrying the
// same idempotency key, or nil when there is none (or it expired).
func (e *Engine) FindReplay(ctx context.Context, userID int64, scope, key string, now time.Time) (*domain.Idempotency, error) {
	var out *domain.Idempotency
	err := e.run(ctx, "find_replay", func(tx *gorm.DB) error {
		rec, err := repo.GetIdempotency(ctx, tx, userID, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = rec
		return nil
	}, "user_id", userID, "scope", scope)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordReplay remembers that key produced sessionID with the given HTTP
// status, for ttl. A concurrent request that recorded the same key first wins
// and (false, nil) is returned.
func (e *Engine) RecordReplay(ctx context.Context, userID int64, scope, key string, sessionID int64, status int, ttl time.Duration) (bool, error) {
	stored := true
	err := e.run(ctx, "record_replay", func(tx *gorm.DB) error {
		_, err := repo.CreateIdempotency(ctx, tx, userID, scope, key, sessionID, status, ttl)
		if errors.Is(err, repo.ErrDuplicate) {
			stored = false
			return nil
		}
		return err
	}, "user_id", userID, "scope", scope, "session_id", sessionID)
	if err != nil {
		return false, err
	}
	return stored, nil
}
