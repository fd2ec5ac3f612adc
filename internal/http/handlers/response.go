// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint. All errors
// use ErrorResponse with a stable code from errors.go; fail logs 5xx with the
// request-scoped logger, and failService maps service and storage errors to
// status and code in one place.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sleep-tracker/internal/http/middleware"
	"github.com/tbourn/go-sleep-tracker/internal/services"
	"github.com/tbourn/go-sleep-tracker/internal/storage"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"already_open"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"a sleep session is already active"`
}

// fail aborts the request with a structured error. Server errors (>= 500)
// are logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail, for the router's 404/405 handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// serviceError maps an error from the services layer to status and code.
// Storage faults are 503: the request was fine, the database was not.
func serviceError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrAlreadyOpen):
		return http.StatusConflict, ErrCodeAlreadyOpen
	case errors.Is(err, services.ErrNoOpenSession):
		return http.StatusConflict, ErrCodeNoOpenSession
	case errors.Is(err, services.ErrNothingToRate):
		return http.StatusConflict, ErrCodeNothingToRate
	case errors.Is(err, services.ErrNothingRated):
		return http.StatusConflict, ErrCodeNothingRated
	case errors.Is(err, services.ErrNoSleepData):
		return http.StatusNotFound, ErrCodeNoData
	case errors.Is(err, services.ErrInvalidQuality):
		return http.StatusBadRequest, ErrCodeInvalidQuality
	case errors.Is(err, services.ErrEmptyNote):
		return http.StatusBadRequest, ErrCodeEmptyNote
	case errors.Is(err, services.ErrNoteTooLong):
		return http.StatusBadRequest, ErrCodeNoteTooLong
	case errors.Is(err, storage.ErrStorage):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// failService writes the envelope for err. Internal details of 5xx errors
// are logged, never returned.
func failService(c *gin.Context, err error) {
	status, code := serviceError(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "storage is temporarily unavailable"
		if code == ErrCodeInternal {
			msg = "internal server error"
		}
	}
	fail(c, status, code, msg)
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
