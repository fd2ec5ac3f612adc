// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries: the sleep statistics
// shown to users and a cheap version fingerprint used for ETags.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
)

// SleepStats aggregates the user's finished sessions: how many there are and
// the sum of (wake_time - sleep_time) in whole seconds. The average is
// total/count as a float. A user with no finished sessions gets the zero value.
func SleepStats(ctx context.Context, db *gorm.DB, userID int64) (domain.SleepStats, error) {
	var row struct {
		Sessions int64
		Total    int64
	}
	err := db.WithContext(ctx).
		Model(&domain.SleepRecord{}).
		Select(`COUNT(id) AS sessions,
			COALESCE(SUM(CAST(strftime('%s', wake_time) AS INTEGER) - CAST(strftime('%s', sleep_time) AS INTEGER)), 0) AS total`).
		Where("user_id = ? AND wake_time IS NOT NULL", userID).
		Scan(&row).Error
	if err != nil {
		return domain.SleepStats{}, err
	}
	if row.Sessions == 0 {
		return domain.SleepStats{}, nil
	}
	return domain.SleepStats{
		Sessions:       row.Sessions,
		TotalSeconds:   row.Total,
		AverageSeconds: float64(row.Total) / float64(row.Sessions),
	}, nil
}

// RecordsVersion fingerprints a user's sessions. Any start, end or rating
// changes at least one of the fields.
type RecordsVersion struct {
	Count    int64
	Finished int64
	Rated    int64
	MaxID    int64
}

// SleepRecordsVersion returns the RecordsVersion for userID in one query.
func SleepRecordsVersion(ctx context.Context, db *gorm.DB, userID int64) (RecordsVersion, error) {
	var v RecordsVersion
	err := db.WithContext(ctx).
		Model(&domain.SleepRecord{}).
		Select(`COUNT(id) AS count,
			COALESCE(SUM(CASE WHEN wake_time IS NOT NULL THEN 1 ELSE 0 END), 0) AS finished,
			COALESCE(SUM(CASE WHEN sleep_quality IS NOT NULL THEN 1 ELSE 0 END), 0) AS rated,
			COALESCE(MAX(id), 0) AS max_id`).
		Where("user_id = ?", userID).
		Scan(&v).Error
	return v, err
}
