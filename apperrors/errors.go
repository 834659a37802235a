// Package apperrors defines the error taxonomy shared by the workflow, the
// stores and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine readable kind of an AppError.
type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeStorage         ErrorCode = "STORAGE_FAILURE"
	CodeNotification    ErrorCode = "NOTIFICATION_SEND_FAILED"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeTooManyRequests ErrorCode = "RATE_LIMITED"
)

// AppError carries a code and a caller-facing message. Err, when set, is the
// underlying cause and stays reachable through errors.Is / errors.As.
type AppError struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any *AppError with the same code, so errors.Is(err, ErrNotFound)
// works for every not-found error regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound     = &AppError{Code: CodeNotFound}
	ErrValidation   = &AppError{Code: CodeValidation}
	ErrStorage      = &AppError{Code: CodeStorage}
	ErrConflict     = &AppError{Code: CodeConflict}
	ErrUnauthorized = &AppError{Code: CodeUnauthorized}
	ErrForbidden    = &AppError{Code: CodeForbidden}
)

func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(field, message string) *AppError {
	e := &AppError{Code: CodeValidation, Message: message}
	if field != "" {
		e.Fields = map[string]string{field: message}
	}
	return e
}

// ValidationFields builds a single error out of several field problems.
func ValidationFields(message string, fields map[string]string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Fields: fields}
}

func Conflict(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// Storage wraps a persistence failure. The cause is kept unchanged.
func Storage(op string, err error) *AppError {
	return &AppError{Code: CodeStorage, Message: op, Err: err}
}

// Notification wraps a failed dispatch. These are logged, never returned to
// API callers of a status change.
func Notification(err error) *AppError {
	return &AppError{Code: CodeNotification, Message: "notification dispatch failed", Err: err}
}

// CodeOf returns the code of the first AppError in err's chain, or
// CodeInternal.
func CodeOf(err error) ErrorCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// HTTPStatus maps err to the status code the API responds with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show API callers. Storage and
// internal causes are not exposed.
func PublicMessage(err error) string {
	var ae *AppError
	if !errors.As(err, &ae) {
		return "internal server error"
	}
	switch ae.Code {
	case CodeStorage:
		return "storage unavailable"
	case CodeInternal:
		return "internal server error"
	}
	return ae.Message
}
