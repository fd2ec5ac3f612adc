package repo

import (
	"context"
	"errors"
	"testing"
)

func TestUpsertNote_InsertThenReplace(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	InsertUserIfAbsent(ctx, db, 1, "a")
	rec, err := CreateSleepRecord(ctx, db, 1, ts(t, "2025-01-01T22:00:00"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := GetNote(ctx, db, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any note, got %v", err)
	}

	if err := UpsertNote(ctx, db, rec.ID, "slept badly"); err != nil {
		t.Fatalf("first UpsertNote: %v", err)
	}
	first, err := GetNote(ctx, db, rec.ID)
	if err != nil || first.Text != "slept badly" {
		t.Fatalf("GetNote = %+v, %v", first, err)
	}

	if err := UpsertNote(ctx, db, rec.ID, "actually fine"); err != nil {
		t.Fatalf("second UpsertNote: %v", err)
	}
	second, err := GetNote(ctx, db, rec.ID)
	if err != nil || second.Text != "actually fine" {
		t.Fatalf("GetNote after replace = %+v, %v", second, err)
	}
	if second.ID != first.ID {
		t.Fatalf("replace should keep the row id: %d vs %d", second.ID, first.ID)
	}

	var n int64
	db.Table("notes").Where("sleep_record_id = ?", rec.ID).Count(&n)
	if n != 1 {
		t.Fatalf("notes rows = %d; want 1", n)
	}
}

func TestUpsertNote_UnknownSessionFails(t *testing.T) {
	db := newRepoDB(t)
	if err := UpsertNote(context.Background(), db, 777, "x"); err == nil {
		t.Fatalf("expected FK error for unknown session")
	}
}
