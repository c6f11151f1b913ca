package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates the broad category an error belongs to. Handlers and
// the upstream client branch on Kind rather than on ad hoc optional fields.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindTransient  Kind = "transient"
	KindAuth       Kind = "auth"
	KindInternal   Kind = "internal"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Kind    Kind              `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(kind Kind, code string, status int, message string) *Error {
	return &Error{Kind: kind, Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error, preserving its Kind when the
// wrapped error is already typed.
func Wrap(err error, code string, status int, message string) *Error {
	kind := KindInternal
	var e *Error
	if errors.As(err, &e) && e != nil {
		kind = e.Kind
	}
	return &Error{Kind: kind, Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New(KindNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New(KindAuth, "FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New(KindAuth, "UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New(KindConflict, "CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New(KindValidation, "VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New(KindInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUnavailable        = New(KindTransient, "UPSTREAM_UNAVAILABLE", http.StatusServiceUnavailable, "service temporarily unavailable")
	ErrIllegalTransition  = New(KindConflict, "ILLEGAL_TRANSITION", http.StatusConflict, "illegal appointment status transition")
	ErrReasonImmutable    = New(KindValidation, "REASON_IMMUTABLE", http.StatusBadRequest, "appointment reason cannot be changed")
	ErrSlotConflict       = New(KindConflict, "SLOT_CONFLICT", http.StatusConflict, "doctor already booked for this time window")
	ErrCacheMiss          = New(KindNotFound, "CACHE_MISS", http.StatusNotFound, "cache entry not found")
	ErrInvalidCredentials = New(KindAuth, "INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid credentials")
)

// Validation builds a field-level validation error carrying every violation
// at once so callers can render them together instead of one at a time.
func Validation(fields map[string]string) *Error {
	e := *ErrValidation
	e.Fields = fields
	return &e
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind == kind
	}
	return false
}
