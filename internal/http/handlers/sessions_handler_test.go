package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
	"github.com/tbourn/go-sleep-tracker/internal/services"
)

func state(t *testing.T, a *testAPI, user int64) string {
	t.Helper()
	w := a.do(t, call{method: http.MethodGet, path: "/state", user: user})
	if w.Code != http.StatusOK {
		t.Fatalf("state status = %d", w.Code)
	}
	var body map[string]string
	decodeInto(t, w, &body)
	return body["state"]
}

func TestSessionFlow_FullNight(t *testing.T) {
	a := newTestAPI(t)
	const user = 42

	if got := state(t, a, user); got != "no_session" {
		t.Fatalf("initial state = %s", got)
	}
	expectError(t, a.do(t, call{method: http.MethodPost, path: "/sessions/end", user: user}),
		http.StatusConflict, ErrCodeNoOpenSession)

	w := a.do(t, call{method: http.MethodPost, path: "/sessions/start", user: user})
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d (%s)", w.Code, w.Body.String())
	}
	var open domain.OpenSession
	decodeInto(t, w, &open)
	if open.ID == 0 || !open.SleepTime.Equal(a.clock.t) {
		t.Fatalf("open = %+v", open)
	}
	if got := state(t, a, user); got != "open" {
		t.Fatalf("state after start = %s", got)
	}
	expectError(t, a.do(t, call{method: http.MethodPost, path: "/sessions/start", user: user}),
		http.StatusConflict, ErrCodeAlreadyOpen)

	a.clock.set(t, "2025-12-13T06:45:30")
	w = a.do(t, call{method: http.MethodPost, path: "/sessions/end", user: user})
	if w.Code != http.StatusOK {
		t.Fatalf("end status = %d", w.Code)
	}
	var end EndSessionResponse
	decodeInto(t, w, &end)
	if end.ID != open.ID || end.DurationSeconds != 7*3600+45*60+30 || end.Hours != 7 || end.Minutes != 45 {
		t.Fatalf("end = %+v", end)
	}

	w = a.do(t, call{method: http.MethodGet, path: "/sessions/pending-rating", user: user})
	var pending domain.FinishedSession
	decodeInto(t, w, &pending)
	if w.Code != http.StatusOK || pending.ID != open.ID {
		t.Fatalf("pending = %d %+v", w.Code, pending)
	}
	expectError(t, a.do(t, call{method: http.MethodGet, path: "/sessions/note", user: user}),
		http.StatusNotFound, ErrCodeNothingRated)

	expectError(t, a.do(t, call{method: http.MethodPost, path: "/sessions/rating", user: user, body: RateRequest{Quality: 6}}),
		http.StatusBadRequest, ErrCodeInvalidQuality)
	expectError(t, a.do(t, call{method: http.MethodPost, path: "/sessions/rating", user: user,
		body: RateRequest{Quality: 3, SessionID: open.ID + 1}}),
		http.StatusConflict, ErrCodeNothingToRate)

	w = a.do(t, call{method: http.MethodPost, path: "/sessions/rating", user: user, body: RateRequest{Quality: 4, SessionID: open.ID}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("rate status = %d (%s)", w.Code, w.Body.String())
	}
	if got := state(t, a, user); got != "finished_rated_no_note" {
		t.Fatalf("state after rating = %s", got)
	}
	expectError(t, a.do(t, call{method: http.MethodGet, path: "/sessions/pending-rating", user: user}),
		http.StatusNotFound, ErrCodeNothingToRate)
	expectError(t, a.do(t, call{method: http.MethodPost, path: "/sessions/rating", user: user, body: RateRequest{Quality: 5}}),
		http.StatusConflict, ErrCodeNothingToRate)

	expectError(t, a.do(t, call{method: http.MethodPut, path: "/sessions/note", user: user, body: NoteRequest{Text: "   "}}),
		http.StatusBadRequest, ErrCodeEmptyNote)
	expectError(t, a.do(t, call{method: http.MethodPut, path: "/sessions/note", user: user, body: NoteRequest{Text: strings.Repeat("z", 2001)}}),
		http.StatusBadRequest, ErrCodeNoteTooLong)

	w = a.do(t, call{method: http.MethodPut, path: "/sessions/note", user: user, body: NoteRequest{Text: "  noisy street  "}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("note status = %d", w.Code)
	}
	w = a.do(t, call{method: http.MethodGet, path: "/sessions/note", user: user})
	var target services.NoteTarget
	decodeInto(t, w, &target)
	if target.Session.ID != open.ID || target.Note == nil || *target.Note != "  noisy street  " {
		t.Fatalf("note target = %+v", target)
	}
	if got := state(t, a, user); got != "finished_rated_with_note" {
		t.Fatalf("final state = %s", got)
	}

	// Next day the rated session is out of reach.
	a.clock.set(t, "2025-12-14T09:00:00")
	expectError(t, a.do(t, call{method: http.MethodPut, path: "/sessions/note", user: user, body: NoteRequest{Text: "late"}}),
		http.StatusConflict, ErrCodeNothingRated)
	if got := state(t, a, user); got != "no_session" {
		t.Fatalf("state next day = %s", got)
	}
}

func TestStartSession_IdempotentReplay(t *testing.T) {
	a := newTestAPI(t)
	key := map[string]string{"Idempotency-Key": "start-1"}

	w := a.do(t, call{method: http.MethodPost, path: "/sessions/start", user: 5, headers: key})
	if w.Code != http.StatusCreated {
		t.Fatalf("first = %d", w.Code)
	}
	var first domain.OpenSession
	decodeInto(t, w, &first)

	w = a.do(t, call{method: http.MethodPost, path: "/sessions/start", user: 5, headers: key})
	if w.Code != http.StatusOK || w.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay = %d %v", w.Code, w.Header())
	}
	var replay domain.Session
	decodeInto(t, w, &replay)
	if replay.ID != first.ID || !replay.SleepTime.Equal(first.SleepTime) {
		t.Fatalf("replay = %+v; want %+v", replay, first)
	}

	// A different key is a new request and hits the lifecycle rule.
	expectError(t, a.do(t, call{method: http.MethodPost, path: "/sessions/start", user: 5,
		headers: map[string]string{"Idempotency-Key": "start-2"}}),
		http.StatusConflict, ErrCodeAlreadyOpen)

	// Keys are per user.
	w = a.do(t, call{method: http.MethodPost, path: "/sessions/start", user: 6, headers: key})
	if w.Code != http.StatusCreated {
		t.Fatalf("other user = %d", w.Code)
	}

	expectError(t, a.do(t, call{method: http.MethodPost, path: "/sessions/start", user: 5,
		headers: map[string]string{"Idempotency-Key": "bad key"}}),
		http.StatusBadRequest, "bad_idempotency_key")
}

func TestListSessions_PaginationAndETag(t *testing.T) {
	a := newTestAPI(t)
	const user = 3
	nights := []struct{ bed, wake string }{
		{"2025-12-10T23:00:00", "2025-12-11T07:00:00"},
		{"2025-12-11T23:00:00", "2025-12-12T07:00:00"},
		{"2025-12-12T23:00:00", ""},
	}
	for _, n := range nights {
		a.clock.set(t, n.bed)
		if w := a.do(t, call{method: http.MethodPost, path: "/sessions/start", user: user}); w.Code != http.StatusCreated {
			t.Fatalf("start %s = %d", n.bed, w.Code)
		}
		if n.wake != "" {
			a.clock.set(t, n.wake)
			a.do(t, call{method: http.MethodPost, path: "/sessions/end", user: user})
		}
	}

	w := a.do(t, call{method: http.MethodGet, path: "/sessions?page=1&page_size=2", user: user})
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var page ListSessionsResponse
	decodeInto(t, w, &page)
	if len(page.Sessions) != 2 || page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 || !page.Pagination.HasNext {
		t.Fatalf("page 1 = %+v", page)
	}
	if page.Sessions[0].WakeTime != nil || page.Sessions[1].WakeTime == nil {
		t.Fatalf("order: newest bedtime first, got %+v", page.Sessions)
	}
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"sessions:3:`) {
		t.Fatalf("etag = %q", etag)
	}

	w = a.do(t, call{method: http.MethodGet, path: "/sessions?page=1&page_size=2", user: user,
		headers: map[string]string{"If-None-Match": etag}})
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional = %d", w.Code)
	}

	a.clock.set(t, "2025-12-13T07:00:00")
	a.do(t, call{method: http.MethodPost, path: "/sessions/end", user: user})
	w = a.do(t, call{method: http.MethodGet, path: "/sessions?page=1&page_size=2", user: user,
		headers: map[string]string{"If-None-Match": etag}})
	if w.Code != http.StatusOK || w.Header().Get("ETag") == etag {
		t.Fatalf("etag must change after end: %d %q", w.Code, w.Header().Get("ETag"))
	}

	w = a.do(t, call{method: http.MethodGet, path: "/sessions?page=2&page_size=2", user: user})
	decodeInto(t, w, &page)
	if len(page.Sessions) != 1 || page.Pagination.HasNext {
		t.Fatalf("page 2 = %+v", page)
	}

	w = a.do(t, call{method: http.MethodGet, path: "/sessions", user: 99})
	decodeInto(t, w, &page)
	if w.Code != http.StatusOK || page.Sessions == nil || len(page.Sessions) != 0 || page.Pagination.TotalPages != 0 {
		t.Fatalf("empty history = %s", w.Body.String())
	}
}

func TestStorageFault_Is503(t *testing.T) {
	a := newTestAPI(t)
	sqlDB, err := a.db.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	_ = sqlDB.Close()

	expectError(t, a.do(t, call{method: http.MethodPost, path: "/sessions/start", user: 1}),
		http.StatusServiceUnavailable, ErrCodeUnavailable)
	expectError(t, a.do(t, call{method: http.MethodGet, path: "/state", user: 1}),
		http.StatusServiceUnavailable, ErrCodeUnavailable)
}
