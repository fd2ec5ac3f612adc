// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// SleepRecord model.
//
// Error semantics:
//   - Lookups that find nothing return gorm.ErrRecordNotFound (ErrNotFound).
//   - Updates addressed by id report the number of affected rows; zero rows is
//     not an error here. Callers decide whether a missing id matters.
//   - On DB errors the raw gorm error is propagated.
//
// Functions:
//
//   - CreateSleepRecord(ctx, db, userID, sleepTime) -> *domain.SleepRecord, error
//   - SetWakeTime(ctx, db, id, wakeTime) -> rows, error
//   - SetSleepQuality(ctx, db, id, quality) -> rows, error
//   - GetSleepRecord(ctx, db, userID, id) -> *domain.SleepRecord, error
//   - LatestOpenRecord(ctx, db, userID) -> *domain.SleepRecord, error
//   - LatestFinishedRecord(ctx, db, userID, rated, day) -> *domain.SleepRecord, error
//   - CountSleepRecords(ctx, db, userID) -> int64, error
//   - ListSleepRecordsPage(ctx, db, userID, offset, limit) -> []domain.SleepRecord, error
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
)

// CreateSleepRecord inserts an open session (no wake time, no quality) for
// userID and returns it with its assigned id.
func CreateSleepRecord(ctx context.Context, db *gorm.DB, userID int64, sleepTime domain.Timestamp) (*domain.SleepRecord, error) {
	rec := &domain.SleepRecord{
		UserID:    userID,
		SleepTime: sleepTime,
	}
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// SetWakeTime stores wakeTime on the session with the given id.
func SetWakeTime(ctx context.Context, db *gorm.DB, id int64, wakeTime domain.Timestamp) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.SleepRecord{}).
		Where("id = ?", id).
		Update("wake_time", wakeTime)
	return res.RowsAffected, res.Error
}

// SetSleepQuality stores quality on the session with the given id. The value
// is not range-checked here.
func SetSleepQuality(ctx context.Context, db *gorm.DB, id int64, quality int) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.SleepRecord{}).
		Where("id = ?", id).
		Update("sleep_quality", quality)
	return res.RowsAffected, res.Error
}

// GetSleepRecord returns the session with the given id if userID owns it.
func GetSleepRecord(ctx context.Context, db *gorm.DB, userID, id int64) (*domain.SleepRecord, error) {
	var rec domain.SleepRecord
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestOpenRecord returns the user's most recent session (by sleep_time)
// that has no wake time.
func LatestOpenRecord(ctx context.Context, db *gorm.DB, userID int64) (*domain.SleepRecord, error) {
	var rec domain.SleepRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND wake_time IS NULL", userID).
		Order("sleep_time DESC").
		Order("id DESC").
		Limit(1).
		Take(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestFinishedRecord returns the user's most recent finished session (by
// wake_time). rated selects sessions with a quality (true) or without one
// (false). A non-empty day (YYYY-MM-DD) keeps only sessions whose wake time
// falls on that calendar date.
func LatestFinishedRecord(ctx context.Context, db *gorm.DB, userID int64, rated bool, day string) (*domain.SleepRecord, error) {
	q := db.WithContext(ctx).
		Where("user_id = ? AND wake_time IS NOT NULL", userID)
	if rated {
		q = q.Where("sleep_quality IS NOT NULL")
	} else {
		q = q.Where("sleep_quality IS NULL")
	}
	if day != "" {
		q = q.Where("DATE(wake_time) = ?", day)
	}

	var rec domain.SleepRecord
	err := q.Order("wake_time DESC").Order("id DESC").Limit(1).Take(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountSleepRecords returns the number of sessions owned by userID.
func CountSleepRecords(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.SleepRecord{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListSleepRecordsPage returns a page of the user's sessions, newest bedtime
// first. Use CountSleepRecords for pagination metadata.
func ListSleepRecordsPage(ctx context.Context, db *gorm.DB, userID int64, offset, limit int) ([]domain.SleepRecord, error) {
	var out []domain.SleepRecord
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sleep_time DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
