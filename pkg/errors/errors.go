package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error is the typed error returned across service boundaries.
// Message is safe to show to callers except for ErrInternal, whose text
// and cause stay in logs.
type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Details string          `json:"details,omitempty"`
	Cause   error           `json:"-"`
	Context context.Context `json:"-"`
}

// ErrorCode is the public error kind.
type ErrorCode string

const (
	ErrValidation        ErrorCode = "VALIDATION_ERROR"
	ErrNotFoundOrInvalid ErrorCode = "NOT_FOUND_OR_INVALID"
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrForbidden         ErrorCode = "FORBIDDEN"
	ErrConflict          ErrorCode = "CONFLICT"
	ErrRateLimited       ErrorCode = "RATE_LIMITED"
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	if targetError, ok := target.(*Error); ok {
		return e.Code == targetError.Code
	}
	return false
}

func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap attaches a cause to a new Error. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithDetails returns a copy of e with details set.
func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Details = details
	return &cp
}

// WithContext returns a copy of e bound to ctx.
func (e *Error) WithContext(ctx context.Context) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Context = ctx
	return &cp
}

// HTTPStatus maps the error code to an HTTP status.
func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusOK
	}

	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFoundOrInvalid:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// GetUserMessage returns the text shown to API callers.
func (e *Error) GetUserMessage() string {
	if e == nil {
		return ""
	}
	if e.Code == ErrInternal || e.Message == "" {
		return defaultMessage(e.Code)
	}
	return e.Message
}

func defaultMessage(code ErrorCode) string {
	switch code {
	case ErrValidation:
		return "invalid request"
	case ErrNotFoundOrInvalid:
		return "not found or invalid"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrForbidden:
		return "forbidden"
	case ErrConflict:
		return "conflict"
	case ErrRateLimited:
		return "too many requests"
	default:
		return "internal server error"
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// FromError converts any error into an *Error, treating unknown errors as internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Wrap(err, ErrInternal, "internal error")
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// WriteJSON writes err as {"error":{...}} with the mapped status code.
// Details of internal errors are never written.
func WriteJSON(w http.ResponseWriter, err error) {
	e := FromError(err)
	payload := errorPayload{
		Code:    e.Code,
		Message: e.GetUserMessage(),
	}
	if e.Code != ErrInternal {
		payload.Details = e.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorBody{Error: payload})
}
