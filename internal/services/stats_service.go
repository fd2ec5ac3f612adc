// Package services – StatsService
//
// StatsService turns the raw aggregate from the store into whole hours and
// minutes for display. Values are truncated, never rounded: 43200 s is 12 h
// 0 min and 21599 s is 5 h 59 min.
package services

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
)

// StatsStore is satisfied by *storage.Engine.
type StatsStore interface {
	ComputeStatistics(ctx context.Context, userID int64) (domain.SleepStats, error)
}

// HoursMinutes is a duration broken down for display.
type HoursMinutes struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
}

// SplitSeconds truncates secs into whole hours and the remaining whole minutes.
func SplitSeconds(secs int64) HoursMinutes {
	return HoursMinutes{Hours: secs / 3600, Minutes: (secs % 3600) / 60}
}

// Summary is the statistics view of a user with at least one finished session.
type Summary struct {
	domain.SleepStats
	Total   HoursMinutes `json:"total"`
	Average HoursMinutes `json:"average"`
}

// StatsService computes statistics summaries.
type StatsService struct {
	Store StatsStore
}

// NewStatsService returns a StatsService over store.
func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{Store: store}
}

// Summary returns the user's statistics, or ErrNoSleepData when there are no
// finished sessions.
func (s *StatsService) Summary(ctx context.Context, userID int64) (*Summary, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "Summary",
		trace.WithAttributes(attribute.Int64("user.id", userID)),
	)
	defer span.End()

	raw, err := s.Store.ComputeStatistics(ctx, userID)
	if err != nil {
		return nil, fail(span, err)
	}
	if raw.Sessions == 0 {
		return nil, ErrNoSleepData
	}

	return &Summary{
		SleepStats: raw,
		Total:      SplitSeconds(raw.TotalSeconds),
		Average:    SplitSeconds(int64(math.Floor(raw.AverageSeconds))),
	}, nil
}
