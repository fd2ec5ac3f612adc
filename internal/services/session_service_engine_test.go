package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
	"github.com/tbourn/go-sleep-tracker/internal/repo"
	"github.com/tbourn/go-sleep-tracker/internal/storage"
)

func newEngineService(t *testing.T) (*SessionService, *gorm.DB) {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "services.db"))
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
	return NewSessionService(eng), db
}

func countOpen(t *testing.T, db *gorm.DB, userID int64) int64 {
	t.Helper()
	var n int64
	err := db.Model(&domain.SleepRecord{}).
		Where("user_id = ? AND wake_time IS NULL", userID).
		Count(&n).Error
	if err != nil {
		t.Fatalf("count open: %v", err)
	}
	return n
}

func TestStart_ConcurrentCallsOpenOneSession(t *testing.T) {
	svc, db := newEngineService(t)

	// Slow reads widen the gap between the open-session check and the insert.
	slow := func(*gorm.DB) { time.Sleep(5 * time.Millisecond) }
	if err := db.Callback().Query().Before("gorm:query").Register("test:slow_query", slow); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	const callers = 8
	const uid = int64(-1001234567890)
	now := clock("2025-01-01T23:00:00")

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Start(context.Background(), uid, "ann", now)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var created, rejected int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrAlreadyOpen):
			rejected++
		default:
			t.Fatalf("Start: %v", err)
		}
	}
	if created != 1 || rejected != callers-1 {
		t.Fatalf("created=%d rejected=%d; want 1 and %d", created, rejected, callers-1)
	}
	if n := countOpen(t, db, uid); n != 1 {
		t.Fatalf("open sessions = %d; want 1", n)
	}
}

func TestEnd_ConcurrentCallsCloseOnce(t *testing.T) {
	svc, db := newEngineService(t)
	ctx := context.Background()
	const uid = int64(9)

	if _, err := svc.Start(ctx, uid, "ann", clock("2025-01-01T23:00:00")); err != nil {
		t.Fatalf("Start: %v", err)
	}

	const callers = 6
	wake := clock("2025-01-02T07:00:00")
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.End(ctx, uid, "ann", wake)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ended int
	for err := range errs {
		switch {
		case err == nil:
			ended++
		case errors.Is(err, ErrNoOpenSession):
		default:
			t.Fatalf("End: %v", err)
		}
	}
	if ended != 1 {
		t.Fatalf("ended = %d; want exactly one", ended)
	}
	if n := countOpen(t, db, uid); n != 0 {
		t.Fatalf("open sessions = %d; want 0", n)
	}
}
