package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-sleep-tracker/internal/bot"
	"github.com/tbourn/go-sleep-tracker/internal/domain"
	"github.com/tbourn/go-sleep-tracker/internal/http/middleware"
	"github.com/tbourn/go-sleep-tracker/internal/repo"
	"github.com/tbourn/go-sleep-tracker/internal/search"
	"github.com/tbourn/go-sleep-tracker/internal/services"
	"github.com/tbourn/go-sleep-tracker/internal/storage"
)

// ---------- test harness ----------

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) set(t *testing.T, s string) {
	t.Helper()
	v, err := time.ParseInLocation(domain.TimestampLayout, s, time.UTC)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	c.t = v
}

type testAPI struct {
	r     *gin.Engine
	clock *testClock
	eng   *storage.Engine
	db    *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	eng := storage.New(db, storage.WithLocation(time.UTC))
	if err := eng.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	tips, err := search.NewRecommender("")
	if err != nil {
		t.Fatalf("NewRecommender: %v", err)
	}

	clock := &testClock{}
	clock.set(t, "2025-12-12T23:00:00")

	sessions := services.NewSessionService(eng)
	stats := services.NewStatsService(eng)
	d := bot.New(sessions, stats, tips, bot.WithClock(clock.now))
	h := New(sessions, stats, tips, d, eng, WithClock(clock.now), WithIdempotencyTTL(time.Hour))

	lookup := func(ctx context.Context, uid int64, scope, key string, now time.Time) (bool, error) {
		rec, err := eng.FindReplay(ctx, uid, scope, key, now)
		return rec != nil, err
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity())
	api := r.Group("/api/v1", middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, lookup), middleware.RequireUser())
	h.Mount(api)

	return &testAPI{r: r, clock: clock, eng: eng, db: db}
}

type call struct {
	method, path string
	user         int64
	body         any
	headers      map[string]string
}

func (a *testAPI) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		if s, ok := c.body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(c.body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, "/api/v1"+c.path, &buf)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != 0 {
		req.Header.Set(middleware.HeaderUserID, strconv.FormatInt(c.user, 10))
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (%s)", w.Code, status, w.Body.String())
	}
	var er ErrorResponse
	decodeInto(t, w, &er)
	if er.Code != code || er.RequestID == "" {
		t.Fatalf("error body = %+v; want code %s", er, code)
	}
}

// ---------- tests ----------

func TestRequireUser_OnEveryRoute(t *testing.T) {
	a := newTestAPI(t)
	for _, c := range []call{
		{method: http.MethodPut, path: "/users/me"},
		{method: http.MethodPost, path: "/sessions/start"},
		{method: http.MethodGet, path: "/sessions"},
		{method: http.MethodGet, path: "/stats"},
		{method: http.MethodPost, path: "/bot/updates", body: bot.Update{Text: "/help"}},
	} {
		expectError(t, a.do(t, c), http.StatusUnauthorized, "unauthorized")
	}
}

func TestRegisterMe(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, call{method: http.MethodPut, path: "/users/me", user: 7,
		headers: map[string]string{middleware.HeaderUserName: "Header Name"}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	u, err := repo.GetUser(context.Background(), a.db, 7)
	if err != nil || u.Name != "Header Name" {
		t.Fatalf("user = %+v, %v", u, err)
	}

	// An existing user keeps the first name.
	w = a.do(t, call{method: http.MethodPut, path: "/users/me", user: 7, body: RegisterUserRequest{Name: "Other"}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("second status = %d", w.Code)
	}
	u, _ = repo.GetUser(context.Background(), a.db, 7)
	if u.Name != "Header Name" {
		t.Fatalf("name overwritten: %q", u.Name)
	}

	w = a.do(t, call{method: http.MethodPut, path: "/users/me", user: 8, body: RegisterUserRequest{Name: " Bo "}})
	u, _ = repo.GetUser(context.Background(), a.db, 8)
	if w.Code != http.StatusNoContent || u == nil || u.Name != "Bo" {
		t.Fatalf("body name: %d %+v", w.Code, u)
	}

	expectError(t, a.do(t, call{method: http.MethodPut, path: "/users/me", user: 9, body: "{"}),
		http.StatusBadRequest, ErrCodeBadRequest)
}

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query              string
		wantPage, wantSize int
	}{
		{"", 1, 20},
		{"page=3&page_size=5", 3, 5},
		{"page=0&page_size=0", 1, 1},
		{"page=x&page_size=1000", 1, 100},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		p, s := clampPagination(c)
		if p != tc.wantPage || s != tc.wantSize {
			t.Fatalf("%q: got %d,%d; want %d,%d", tc.query, p, s, tc.wantPage, tc.wantSize)
		}
	}
}
