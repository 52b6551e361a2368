// Package apperrors holds the typed API errors the service layer raises and
// the mapping from storage/context failures onto them.
package apperrors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Error is an API-facing error with an HTTP status. Statuses below 500 render
// as {status:"fail"}, 5xx as {status:"error"} with the message suppressed.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(status int, msg string) *Error { return &Error{Status: status, Message: msg} }

func BadRequest(msg string) *Error      { return New(http.StatusBadRequest, msg) }
func Unauthorized(msg string) *Error    { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *Error       { return New(http.StatusForbidden, msg) }
func NotFound(msg string) *Error        { return New(http.StatusNotFound, msg) }
func Conflict(msg string) *Error        { return New(http.StatusConflict, msg) }
func TooManyRequests(msg string) *Error { return New(http.StatusTooManyRequests, msg) }
func Internal(msg string) *Error        { return New(http.StatusInternalServerError, msg) }

// Map converts repo/infra errors into API errors. Keeps the service layer
// clean by centralizing error mapping.
func Map(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr

	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("duplicate record")

	case errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, "request timed out")

	case errors.Is(err, context.Canceled):
		return New(499, "request was canceled")

	default:
		return Internal(err.Error())
	}
}
