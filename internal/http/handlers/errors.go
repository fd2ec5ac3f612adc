// Package handlers defines the error codes returned in ErrorResponse.Code.
//
// Generic codes mirror the HTTP status. Workflow codes name the lifecycle
// rule that refused the request, so a client can tell "you have not gone to
// bed yet" apart from "you already rated this night" without parsing text.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "already_open",
//	  "message": "a sleep session is already active"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
	ErrCodeUnavailable      = "storage_unavailable"

	// Workflow:
	ErrCodeAlreadyOpen    = "already_open"
	ErrCodeNoOpenSession  = "no_open_session"
	ErrCodeNothingToRate  = "nothing_to_rate"
	ErrCodeNothingRated   = "nothing_rated"
	ErrCodeNoData         = "no_data"
	ErrCodeInvalidQuality = "invalid_quality"
	ErrCodeEmptyNote      = "empty_note"
	ErrCodeNoteTooLong    = "note_too_long"
)
