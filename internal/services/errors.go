// Package services holds the sleep-tracking workflow: which step a user may
// take next, and how statistics are presented.
//
// The values below are lifecycle outcomes, not faults. Transports turn them
// into user-facing text or HTTP statuses. Storage faults are returned as-is
// and match storage.ErrStorage.
package services

import "errors"

// Lifecycle outcomes.
var (
	// ErrAlreadyOpen is returned by Start when the user already has an open
	// session. Nothing is created.
	ErrAlreadyOpen = errors.New("a sleep session is already active")

	// ErrNoOpenSession is returned by End when there is nothing to end.
	ErrNoOpenSession = errors.New("no sleep session has been started")

	// ErrNothingToRate means there is no session finished today that still
	// lacks a quality, or the given session is not that one.
	ErrNothingToRate = errors.New("nothing to rate")

	// ErrNothingRated means no session finished today has a quality yet, or
	// the given session is not the latest rated one.
	ErrNothingRated = errors.New("nothing rated yet")

	// ErrNoSleepData is returned by StatsService when the user has no
	// finished sessions.
	ErrNoSleepData = errors.New("no sleep data yet")
)

// Input validation.
var (
	// ErrInvalidQuality is returned when a quality is outside 1..5.
	ErrInvalidQuality = errors.New("quality must be between 1 and 5")

	// ErrEmptyNote is returned when a note is blank after trimming.
	ErrEmptyNote = errors.New("note is empty")

	// ErrNoteTooLong is returned when a note exceeds the configured rune limit.
	ErrNoteTooLong = errors.New("note too long")
)
