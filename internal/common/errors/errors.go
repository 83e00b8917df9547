// Package errors carries the typed error used across the bot. Every
// failure that reaches a log line or an HTTP response is an *AppError with
// a stable code; plain errors are wrapped at the boundary where they occur.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

type ErrorCode string

// Generic codes.
const (
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeRateLimit    ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// Storage and upstream codes.
const (
	ErrCodeCacheError   ErrorCode = "CACHE_ERROR"
	ErrCodeSessionError ErrorCode = "SESSION_ERROR"

	ErrCodeTelegramAPI ErrorCode = "TELEGRAM_API_ERROR"
	ErrCodeExternalAPI ErrorCode = "EXTERNAL_API_ERROR"

	// ERP_UNAVAILABLE: every attempt failed at the transport level.
	ErrCodeERPUnavailable ErrorCode = "ERP_UNAVAILABLE"
	// ERP_STATUS: the ERP answered with a non-2xx status.
	ErrCodeERPStatus ErrorCode = "ERP_STATUS"
	// ERP_DECODE: a 2xx body that is not a result envelope.
	ErrCodeERPDecode ErrorCode = "ERP_DECODE"
)

type AppError struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id,omitempty"`
	UserID    int64          `json:"user_id,omitempty"`

	// Context is logged but never serialized to clients.
	Context map[string]string `json:"-"`
	Cause   error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) IsNotFound() bool { return e.Code == ErrCodeNotFound }

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeBadRequest
}

func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized || e.Code == ErrCodeForbidden
}

func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = map[string]string{}
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(id string) *AppError {
	e.RequestID = id
	return e
}

func (e *AppError) WithUserID(id int64) *AppError {
	e.UserID = id
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Timestamp: time.Now()}
}

// Wrap attaches cause to a new AppError. A nil cause yields a plain New.
func Wrap(cause error, code ErrorCode, message string) *AppError {
	e := New(code, message)
	e.Cause = cause
	return e
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotFoundError(resource string, id any) *AppError {
	return New(ErrCodeNotFound, resource+" not found").
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, "unauthorized: "+reason).WithDetail("reason", reason)
}

func NewSessionError(op string, cause error) *AppError {
	return Wrap(cause, ErrCodeSessionError, "session "+op+" failed").WithDetail("operation", op)
}

func NewCacheError(op string, cause error) *AppError {
	return Wrap(cause, ErrCodeCacheError, "cache "+op+" failed").WithDetail("operation", op)
}

func NewTelegramAPIError(method string, cause error) *AppError {
	return Wrap(cause, ErrCodeTelegramAPI, "telegram "+method+" failed").WithDetail("operation", method)
}

func NewERPUnavailableError(endpoint string, attempts int, cause error) *AppError {
	return Wrap(cause, ErrCodeERPUnavailable, "erp unavailable: "+endpoint).
		WithDetail("endpoint", endpoint).
		WithDetail("attempts", attempts)
}

func NewERPStatusError(endpoint string, status int, body string) *AppError {
	return New(ErrCodeERPStatus, fmt.Sprintf("erp %s returned %d", endpoint, status)).
		WithDetail("endpoint", endpoint).
		WithDetail("status", status).
		WithDetail("body", body)
}

// AsAppError finds the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil && stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
