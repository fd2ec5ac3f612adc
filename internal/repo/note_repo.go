// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Note model.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
)

// UpsertNote writes the note for a session. When one already exists (unique
// sleep_record_id) its text is replaced in place; no second row is created.
func UpsertNote(ctx context.Context, db *gorm.DB, sleepRecordID int64, text string) error {
	n := &domain.Note{SleepRecordID: sleepRecordID, Text: text}
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sleep_record_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"notes_text"}),
		}).
		Create(n).Error
}

// GetNote returns the note attached to a session, or ErrNotFound.
func GetNote(ctx context.Context, db *gorm.DB, sleepRecordID int64) (*domain.Note, error) {
	var n domain.Note
	err := db.WithContext(ctx).
		Where("sleep_record_id = ?", sleepRecordID).
		Take(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}
