// Package handlers exposes the sleep tracker over REST.
//
// Endpoints (under the API base path):
//   - PUT  /users/me                 (register)
//   - POST /sessions/start           (bedtime, Idempotency-Key aware)
//   - POST /sessions/end             (wake time)
//   - GET  /sessions/pending-rating  POST /sessions/rating
//   - GET  /sessions/note            PUT  /sessions/note
//   - GET  /sessions                 (history, paginated, weak ETag)
//   - GET  /state  GET /stats  GET /recommendations
//   - POST /bot/updates              (bot dispatcher entry point)
//
// Handlers are transport-thin: they read the caller identity set by
// middleware.Identity, call the services, and translate results and errors
// into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sleep-tracker/internal/bot"
	"github.com/tbourn/go-sleep-tracker/internal/domain"
	"github.com/tbourn/go-sleep-tracker/internal/http/middleware"
	"github.com/tbourn/go-sleep-tracker/internal/repo"
	"github.com/tbourn/go-sleep-tracker/internal/search"
	"github.com/tbourn/go-sleep-tracker/internal/services"
	"github.com/tbourn/go-sleep-tracker/internal/utils"
)

//
// Service contracts (context-aware)
//

// SessionService is the lifecycle API. *services.SessionService implements it.
type SessionService interface {
	Register(ctx context.Context, userID int64, name string)
	Start(ctx context.Context, userID int64, name string, now time.Time) (*domain.OpenSession, error)
	End(ctx context.Context, userID int64, name string, now time.Time) (*domain.FinishedSession, error)
	PendingRating(ctx context.Context, userID int64, name string, now time.Time) (*domain.FinishedSession, error)
	Rate(ctx context.Context, userID, sessionID int64, quality int, now time.Time) (*domain.FinishedSession, error)
	PendingNote(ctx context.Context, userID int64, name string, now time.Time) (*services.NoteTarget, error)
	Annotate(ctx context.Context, userID, sessionID int64, text string, now time.Time) (*domain.FinishedSession, error)
	State(ctx context.Context, userID int64, now time.Time) (domain.SessionState, error)
	History(ctx context.Context, userID int64, page, pageSize int) ([]domain.Session, int64, error)
}

// StatsService is implemented by *services.StatsService.
type StatsService interface {
	Summary(ctx context.Context, userID int64) (*services.Summary, error)
}

// Recommender is implemented by *search.Recommender.
type Recommender interface {
	Recommend(topic string, k int) []search.Result
}

// Dispatcher is implemented by *bot.Dispatcher.
type Dispatcher interface {
	Handle(ctx context.Context, u bot.Update) bot.Reply
}

// Store is the part of *storage.Engine the handlers read directly: replay
// records for Idempotency-Key and the version used for list ETags. A nil
// Store disables both.
type Store interface {
	FindSession(ctx context.Context, userID, sessionID int64) (*domain.Session, error)
	SessionsVersion(ctx context.Context, userID int64) (repo.RecordsVersion, error)
	FindReplay(ctx context.Context, userID int64, scope, key string, now time.Time) (*domain.Idempotency, error)
	RecordReplay(ctx context.Context, userID int64, scope, key string, sessionID int64, status int, ttl time.Duration) (bool, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints.
type Handlers struct {
	sessions SessionService
	stats    StatsService
	tips     Recommender
	bot      Dispatcher
	store    Store

	now     func() time.Time
	idemTTL time.Duration
}

// Option customizes Handlers.
type Option func(*Handlers)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) {
		if now != nil {
			h.now = now
		}
	}
}

// WithIdempotencyTTL sets how long a recorded Idempotency-Key is honored.
func WithIdempotencyTTL(d time.Duration) Option {
	return func(h *Handlers) {
		if d > 0 {
			h.idemTTL = d
		}
	}
}

// New binds the handlers to their services. store may be nil.
func New(sessions SessionService, stats StatsService, tips Recommender, dispatcher Dispatcher, store Store, opts ...Option) *Handlers {
	h := &Handlers{
		sessions: sessions,
		stats:    stats,
		tips:     tips,
		bot:      dispatcher,
		store:    store,
		now:      time.Now,
		idemTTL:  24 * time.Hour,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// caller returns the identity set by middleware. Routes are mounted behind
// middleware.RequireUser, so ok is false only when that is misconfigured.
func caller(c *gin.Context) (int64, string, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID header must be a non-zero integer")
		return 0, "", false
	}
	return id, middleware.UserName(c), true
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses page and page_size, defaulting to 1 and 20 and
// capping page_size at 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	return utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), defaultPage),
		utils.AtoiDefault(c.Query("page_size"), defaultPageSize),
		maxPageSize,
	)
}

// Mount registers every endpoint on rg. The group is expected to run
// middleware.Identity and middleware.RequireUser.
func (h *Handlers) Mount(rg *gin.RouterGroup) {
	rg.PUT("/users/me", h.RegisterMe)

	s := rg.Group("/sessions")
	s.GET("", h.ListSessions)
	s.POST("/start", h.StartSession)
	s.POST("/end", h.EndSession)
	s.GET("/pending-rating", h.PendingRating)
	s.POST("/rating", h.RateSession)
	s.GET("/note", h.GetNote)
	s.PUT("/note", h.PutNote)

	rg.GET("/state", h.GetState)
	rg.GET("/stats", h.GetStats)
	rg.GET("/recommendations", h.GetRecommendations)
	rg.POST("/bot/updates", h.BotUpdate)
}
