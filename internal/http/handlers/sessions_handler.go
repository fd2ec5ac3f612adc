// Session HTTP handlers.
//
// These endpoints drive one night through the workflow: start, end, rate,
// annotate. All "today" decisions use the handler clock; the services never
// read the time themselves.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
	"github.com/tbourn/go-sleep-tracker/internal/http/middleware"
	"github.com/tbourn/go-sleep-tracker/internal/services"
	"github.com/tbourn/go-sleep-tracker/internal/utils"
)

//
// DTOs
//

// EndSessionResponse is a finished session with its duration broken down.
type EndSessionResponse struct {
	domain.FinishedSession
	DurationSeconds int64 `json:"duration_seconds" example:"28800"`
	Hours           int64 `json:"hours" example:"8"`
	Minutes         int64 `json:"minutes" example:"0"`
}

// RateRequest is the payload for POST /sessions/rating. SessionID, when set,
// must name today's unrated session; stale clients get 409.
type RateRequest struct {
	Quality   int   `json:"quality" binding:"required,min=1,max=5" example:"4"`
	SessionID int64 `json:"session_id,omitempty" example:"17"`
}

// NoteRequest is the payload for PUT /sessions/note.
type NoteRequest struct {
	Text      string `json:"text" binding:"required" example:"Woke up twice, street noise"`
	SessionID int64  `json:"session_id,omitempty" example:"17"`
}

// StateResponse reports where the caller is in the workflow.
type StateResponse struct {
	State domain.SessionState `json:"state" swaggertype:"string" example:"finished_unrated"`
}

// ListSessionsResponse wraps a page of sessions and pagination information.
type ListSessionsResponse struct {
	Sessions   []domain.Session `json:"sessions"`
	Pagination Pagination       `json:"pagination"`
}

//
// Handlers
//

// StartSession godoc
// @ID          startSession
// @Summary     Record bedtime
// @Description Opens a sleep session at the current time. A retry carrying the same Idempotency-Key returns the session the first request opened, with 200.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID        header  int     true   "Chat user id"  example(42)
// @Param       X-User-Name      header  string  false  "Display name"  example(Ann)
// @Param       Idempotency-Key  header  string  false  "Client retry key"  example(start-2025-12-12)
//
// @Success     201  {object} domain.OpenSession
// @Success     200  {object} domain.Session "Replayed response"
// @Failure     400  {object} handlers.ErrorResponse "Bad Idempotency-Key"
// @Failure     409  {object} handlers.ErrorResponse "already_open"
// @Failure     503  {object} handlers.ErrorResponse "storage_unavailable"
// @Router      /sessions/start [post]
func (h *Handlers) StartSession(c *gin.Context) {
	uid, name, okUser := caller(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	now := h.now()

	key, hasKey := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	if hasKey && h.store != nil {
		if s := h.replayed(c, uid, scope, key); s != nil {
			c.Header("Idempotent-Replayed", "true")
			ok(c, http.StatusOK, s)
			return
		}
	}

	open, err := h.sessions.Start(ctx, uid, name, now)
	if err != nil {
		failService(c, err)
		return
	}

	if hasKey && h.store != nil {
		if _, err := h.store.RecordReplay(ctx, uid, scope, key, open.ID, http.StatusCreated, h.idemTTL); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("could not record idempotency key")
		}
	}
	ok(c, http.StatusCreated, open)
}

// replayed returns the session recorded for key, or nil. Lookup faults are
// logged and treated as "no record": the request then runs normally and the
// lifecycle rules still prevent a second open session.
func (h *Handlers) replayed(c *gin.Context, uid int64, scope, key string) *domain.Session {
	ctx := c.Request.Context()
	rec, err := h.store.FindReplay(ctx, uid, scope, key, h.now())
	if err != nil || rec == nil {
		return nil
	}
	s, err := h.store.FindSession(ctx, uid, rec.SessionID)
	if err != nil {
		return nil
	}
	return s
}

// EndSession godoc
// @ID          endSession
// @Summary     Record wake time
// @Description Finishes the newest open session at the current time and returns its duration.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID    header  int     true   "Chat user id"  example(42)
// @Param       X-User-Name  header  string  false  "Display name"  example(Ann)
//
// @Success     200  {object} handlers.EndSessionResponse
// @Failure     409  {object} handlers.ErrorResponse "no_open_session"
// @Failure     503  {object} handlers.ErrorResponse "storage_unavailable"
// @Router      /sessions/end [post]
func (h *Handlers) EndSession(c *gin.Context) {
	uid, name, okUser := caller(c)
	if !okUser {
		return
	}
	fin, err := h.sessions.End(c.Request.Context(), uid, name, h.now())
	if err != nil {
		failService(c, err)
		return
	}
	secs := int64(fin.Duration().Seconds())
	hm := services.SplitSeconds(secs)
	ok(c, http.StatusOK, EndSessionResponse{
		FinishedSession: *fin,
		DurationSeconds: secs,
		Hours:           hm.Hours,
		Minutes:         hm.Minutes,
	})
}

// PendingRating godoc
// @ID          pendingRating
// @Summary     Session awaiting a rating
// @Description Returns today's newest finished session that has no quality yet.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  int  true  "Chat user id"  example(42)
//
// @Success     200  {object} domain.FinishedSession
// @Failure     404  {object} handlers.ErrorResponse "nothing_to_rate"
// @Failure     503  {object} handlers.ErrorResponse "storage_unavailable"
// @Router      /sessions/pending-rating [get]
func (h *Handlers) PendingRating(c *gin.Context) {
	uid, name, okUser := caller(c)
	if !okUser {
		return
	}
	fin, err := h.sessions.PendingRating(c.Request.Context(), uid, name, h.now())
	if errors.Is(err, services.ErrNothingToRate) {
		fail(c, http.StatusNotFound, ErrCodeNothingToRate, err.Error())
		return
	}
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, fin)
}

// RateSession godoc
// @ID          rateSession
// @Summary     Rate last night
// @Description Stores a 1..5 quality score on today's newest unrated session.
// @Tags        Sessions
// @Accept      json
//
// @Param       X-User-ID  header  int                   true  "Chat user id"  example(42)
// @Param       body       body    handlers.RateRequest  true  "Rating"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     409  {object} handlers.ErrorResponse "nothing_to_rate"
// @Failure     503  {object} handlers.ErrorResponse "storage_unavailable"
// @Router      /sessions/rating [post]
func (h *Handlers) RateSession(c *gin.Context) {
	uid, _, okUser := caller(c)
	if !okUser {
		return
	}
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidQuality, "quality must be an integer between 1 and 5")
		return
	}
	if _, err := h.sessions.Rate(c.Request.Context(), uid, req.SessionID, req.Quality, h.now()); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// GetNote godoc
// @ID          getNote
// @Summary     Note target
// @Description Returns today's newest rated session and its note, if any.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  int  true  "Chat user id"  example(42)
//
// @Success     200  {object} services.NoteTarget
// @Failure     404  {object} handlers.ErrorResponse "nothing_rated"
// @Failure     503  {object} handlers.ErrorResponse "storage_unavailable"
// @Router      /sessions/note [get]
func (h *Handlers) GetNote(c *gin.Context) {
	uid, name, okUser := caller(c)
	if !okUser {
		return
	}
	target, err := h.sessions.PendingNote(c.Request.Context(), uid, name, h.now())
	if errors.Is(err, services.ErrNothingRated) {
		fail(c, http.StatusNotFound, ErrCodeNothingRated, err.Error())
		return
	}
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, target)
}

// PutNote godoc
// @ID          putNote
// @Summary     Write a note
// @Description Sets (or replaces) the note on today's newest rated session.
// @Tags        Sessions
// @Accept      json
//
// @Param       X-User-ID  header  int                   true  "Chat user id"  example(42)
// @Param       body       body    handlers.NoteRequest  true  "Note"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "empty_note, note_too_long"
// @Failure     409  {object} handlers.ErrorResponse "nothing_rated"
// @Failure     503  {object} handlers.ErrorResponse "storage_unavailable"
// @Router      /sessions/note [put]
func (h *Handlers) PutNote(c *gin.Context) {
	uid, _, okUser := caller(c)
	if !okUser {
		return
	}
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeEmptyNote, "text is required")
		return
	}
	if _, err := h.sessions.Annotate(c.Request.Context(), uid, req.SessionID, req.Text, h.now()); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// ListSessions godoc
// @ID          listSessions
// @Summary     Sleep history (paginated)
// @Description Returns the caller's sessions, newest bedtime first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID      header  int     true   "Chat user id"               example(42)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSessionsResponse
// @Header      200  {string} ETag  "Weak ETag for the current history"
// @Success     304  {string} string "Not Modified"
// @Failure     503  {object} handlers.ErrorResponse "storage_unavailable"
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	uid, _, okUser := caller(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.store != nil {
		if v, err := h.store.SessionsVersion(ctx, uid); err == nil {
			etag := fmt.Sprintf(`W/"sessions:%d:%d:%d:%d:%d:%d:%d"`,
				uid, v.Count, v.Finished, v.Rated, v.MaxID, page, pageSize)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.sessions.History(ctx, uid, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListSessionsResponse{
		Sessions: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetState godoc
// @ID          getState
// @Summary     Workflow state
// @Description One of no_session, open, finished_unrated, finished_rated_no_note, finished_rated_with_note.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  int  true  "Chat user id"  example(42)
//
// @Success     200  {object} handlers.StateResponse
// @Failure     503  {object} handlers.ErrorResponse "storage_unavailable"
// @Router      /state [get]
func (h *Handlers) GetState(c *gin.Context) {
	uid, _, okUser := caller(c)
	if !okUser {
		return
	}
	st, err := h.sessions.State(c.Request.Context(), uid, h.now())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, StateResponse{State: st})
}
