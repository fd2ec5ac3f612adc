// Package services – SessionService
//
// SessionService enforces the per-user sleep workflow:
//
//	no session ──start──▶ open ──end──▶ finished ──rate──▶ rated ──annotate──▶ rated+note
//
// Rating and annotating only look at sessions whose wake time falls on the
// caller's "today" (the calendar date of now). A session finished on an
// earlier day can no longer be rated or annotated.
//
// The service reads no clock: every method takes now from the caller.
package services

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
)

// SessionStore is the persistence contract SessionService needs. It is
// satisfied by *storage.Engine.
type SessionStore interface {
	UpsertUser(ctx context.Context, id int64, name string) error
	StartSession(ctx context.Context, userID int64, sleepTime time.Time) (int64, error)
	EndSession(ctx context.Context, sessionID int64, wakeTime time.Time) error
	SetQuality(ctx context.Context, sessionID int64, quality int) error
	UpsertNote(ctx context.Context, sessionID int64, text string) (bool, error)
	FindOpenSession(ctx context.Context, userID int64) (*domain.OpenSession, error)
	FindFinishedUnrated(ctx context.Context, userID int64, on time.Time) (*domain.FinishedSession, error)
	FindLatestRated(ctx context.Context, userID int64, on time.Time) (*domain.FinishedSession, error)
	FindNote(ctx context.Context, sessionID int64) (*string, error)
	ListSessions(ctx context.Context, userID int64, offset, limit int) ([]domain.Session, error)
	CountSessions(ctx context.Context, userID int64) (int64, error)
}

// NoteTarget is the session a note would be attached to, with its current
// note if it already has one.
type NoteTarget struct {
	Session domain.FinishedSession `json:"session"`
	Note    *string                `json:"note,omitempty"`
}

// SessionService applies the workflow rules on top of a SessionStore.
type SessionService struct {
	Store SessionStore

	// DefaultName is recorded for users that arrive without a display name.
	DefaultName string
	// MaxNoteRunes caps note length; <= 0 disables the check.
	MaxNoteRunes int

	Log zerolog.Logger

	// userLocks holds one *sync.Mutex per user id. Start and End hold it
	// across their read and write so a user never ends up with two open
	// sessions.
	userLocks sync.Map
}

// NewSessionService returns a service with the default name "User" and a
// 2000-rune note limit.
func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{
		Store:        store,
		DefaultName:  "User",
		MaxNoteRunes: 2000,
		Log:          log.Logger,
	}
}

func (s *SessionService) startSpan(ctx context.Context, name string, userID int64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tr := otel.Tracer("services/SessionService")
	attrs = append(attrs, attribute.Int64("user.id", userID))
	return tr.Start(ctx, name, trace.WithAttributes(attrs...))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// lockUser serializes lifecycle transitions of one user and returns the
// unlock func.
func (s *SessionService) lockUser(userID int64) func() {
	v, _ := s.userLocks.LoadOrStore(userID, new(sync.Mutex))
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ensureUser records the user before an action. A failure only means the
// user row is missing this time; it is logged and the action goes on.
func (s *SessionService) ensureUser(ctx context.Context, userID int64, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.DefaultName
	}
	if name == "" {
		name = "User"
	}
	if err := s.Store.UpsertUser(ctx, userID, name); err != nil {
		s.Log.Warn().Err(err).Int64("user_id", userID).Msg("could not record user")
	}
}

// Register records the user without taking any other step.
func (s *SessionService) Register(ctx context.Context, userID int64, name string) {
	ctx, span := s.startSpan(ctx, "Register", userID)
	defer span.End()
	s.ensureUser(ctx, userID, name)
}

// Start opens a session at now. If one is already open it is returned along
// with ErrAlreadyOpen and nothing is written.
func (s *SessionService) Start(ctx context.Context, userID int64, name string, now time.Time) (*domain.OpenSession, error) {
	ctx, span := s.startSpan(ctx, "Start", userID)
	defer span.End()

	s.ensureUser(ctx, userID, name)

	unlock := s.lockUser(userID)
	defer unlock()

	open, err := s.Store.FindOpenSession(ctx, userID)
	if err != nil {
		return nil, fail(span, err)
	}
	if open != nil {
		return open, ErrAlreadyOpen
	}

	now = now.Truncate(time.Second)
	id, err := s.Store.StartSession(ctx, userID, now)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int64("session.id", id))
	return &domain.OpenSession{ID: id, SleepTime: now}, nil
}

// End closes the user's newest open session at now and returns it finished.
func (s *SessionService) End(ctx context.Context, userID int64, name string, now time.Time) (*domain.FinishedSession, error) {
	ctx, span := s.startSpan(ctx, "End", userID)
	defer span.End()

	s.ensureUser(ctx, userID, name)

	unlock := s.lockUser(userID)
	defer unlock()

	open, err := s.Store.FindOpenSession(ctx, userID)
	if err != nil {
		return nil, fail(span, err)
	}
	if open == nil {
		return nil, ErrNoOpenSession
	}
	span.SetAttributes(attribute.Int64("session.id", open.ID))

	now = now.Truncate(time.Second)
	if err := s.Store.EndSession(ctx, open.ID, now); err != nil {
		return nil, fail(span, err)
	}
	return &domain.FinishedSession{ID: open.ID, SleepTime: open.SleepTime, WakeTime: now}, nil
}

// PendingRating returns today's newest finished session without a quality.
func (s *SessionService) PendingRating(ctx context.Context, userID int64, name string, now time.Time) (*domain.FinishedSession, error) {
	ctx, span := s.startSpan(ctx, "PendingRating", userID)
	defer span.End()

	s.ensureUser(ctx, userID, name)

	fin, err := s.Store.FindFinishedUnrated(ctx, userID, now)
	if err != nil {
		return nil, fail(span, err)
	}
	if fin == nil {
		return nil, ErrNothingToRate
	}
	return fin, nil
}

// Rate stores quality (1..5) on today's newest unrated session. sessionID 0
// means "whichever that is"; any other id must name exactly that session,
// which keeps stale rating buttons from touching another session.
func (s *SessionService) Rate(ctx context.Context, userID, sessionID int64, quality int, now time.Time) (*domain.FinishedSession, error) {
	ctx, span := s.startSpan(ctx, "Rate", userID,
		attribute.Int64("session.id", sessionID),
		attribute.Int("quality", quality),
	)
	defer span.End()

	if quality < 1 || quality > 5 {
		return nil, ErrInvalidQuality
	}

	s.ensureUser(ctx, userID, "")

	fin, err := s.Store.FindFinishedUnrated(ctx, userID, now)
	if err != nil {
		return nil, fail(span, err)
	}
	if fin == nil || (sessionID != 0 && sessionID != fin.ID) {
		return nil, ErrNothingToRate
	}

	if err := s.Store.SetQuality(ctx, fin.ID, quality); err != nil {
		return nil, fail(span, err)
	}
	return fin, nil
}

// PendingNote returns today's newest rated session, whether or not it already
// has a note, together with that note.
func (s *SessionService) PendingNote(ctx context.Context, userID int64, name string, now time.Time) (*NoteTarget, error) {
	ctx, span := s.startSpan(ctx, "PendingNote", userID)
	defer span.End()

	s.ensureUser(ctx, userID, name)

	rated, err := s.Store.FindLatestRated(ctx, userID, now)
	if err != nil {
		return nil, fail(span, err)
	}
	if rated == nil {
		return nil, ErrNothingRated
	}

	note, err := s.Store.FindNote(ctx, rated.ID)
	if err != nil {
		return nil, fail(span, err)
	}
	return &NoteTarget{Session: *rated, Note: note}, nil
}

// Annotate writes text as the note of today's newest rated session, replacing
// any previous note. sessionID follows the same rule as in Rate. Text that is
// blank after trimming is rejected; otherwise it is stored unchanged.
func (s *SessionService) Annotate(ctx context.Context, userID, sessionID int64, text string, now time.Time) (*domain.FinishedSession, error) {
	ctx, span := s.startSpan(ctx, "Annotate", userID, attribute.Int64("session.id", sessionID))
	defer span.End()

	// Only the blank check trims; the note is stored exactly as written.
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyNote
	}
	if s.MaxNoteRunes > 0 && utf8.RuneCountInString(text) > s.MaxNoteRunes {
		return nil, ErrNoteTooLong
	}

	s.ensureUser(ctx, userID, "")

	rated, err := s.Store.FindLatestRated(ctx, userID, now)
	if err != nil {
		return nil, fail(span, err)
	}
	if rated == nil || (sessionID != 0 && sessionID != rated.ID) {
		return nil, ErrNothingRated
	}

	ok, err := s.Store.UpsertNote(ctx, rated.ID, text)
	if err != nil {
		return nil, fail(span, err)
	}
	if !ok {
		return nil, ErrEmptyNote
	}
	return rated, nil
}

// State reports where the user is in the workflow as of now.
func (s *SessionService) State(ctx context.Context, userID int64, now time.Time) (domain.SessionState, error) {
	ctx, span := s.startSpan(ctx, "State", userID)
	defer span.End()

	open, err := s.Store.FindOpenSession(ctx, userID)
	if err != nil {
		return domain.StateNoSession, fail(span, err)
	}
	if open != nil {
		return domain.StateOpen, nil
	}

	unrated, err := s.Store.FindFinishedUnrated(ctx, userID, now)
	if err != nil {
		return domain.StateNoSession, fail(span, err)
	}
	if unrated != nil {
		return domain.StateFinishedUnrated, nil
	}

	rated, err := s.Store.FindLatestRated(ctx, userID, now)
	if err != nil {
		return domain.StateNoSession, fail(span, err)
	}
	if rated == nil {
		return domain.StateNoSession, nil
	}

	note, err := s.Store.FindNote(ctx, rated.ID)
	if err != nil {
		return domain.StateNoSession, fail(span, err)
	}
	if note != nil {
		return domain.StateFinishedRatedWithNote, nil
	}
	return domain.StateFinishedRatedNoNote, nil
}

// History returns one page of the user's sessions plus the total count.
// page is 1-based; pageSize <= 0 means 20.
func (s *SessionService) History(ctx context.Context, userID int64, page, pageSize int) ([]domain.Session, int64, error) {
	ctx, span := s.startSpan(ctx, "History", userID,
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	total, err := s.Store.CountSessions(ctx, userID)
	if err != nil {
		return nil, 0, fail(span, err)
	}
	if total == 0 {
		return []domain.Session{}, 0, nil
	}

	items, err := s.Store.ListSessions(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, fail(span, err)
	}
	return items, total, nil
}
