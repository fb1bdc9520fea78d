package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode identifies a class of bundle failure.
type ErrorCode string

const (
	ErrInvalidBundle ErrorCode = "INVALID_BUNDLE" // schema or uniqueness violation
	ErrNotFound      ErrorCode = "NOT_FOUND"      // named bundle absent
	ErrCorruptStore  ErrorCode = "CORRUPT_STORE"  // persisted data unreadable
	ErrInvalidConfig ErrorCode = "INVALID_CONFIG" // bad user preference
)

// Error is the structured error returned by the store, the validator and the
// config loader.
type Error struct {
	Code    ErrorCode
	Message string
	// Fields maps a bundle field name to a human readable message.
	// Only set for ErrInvalidBundle.
	Fields map[string]string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, "; "))
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidation creates an error carrying one message per offending field.
func NewValidation(fields map[string]string) *Error {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &Error{
		Code:    ErrInvalidBundle,
		Message: "invalid bundle",
		Fields:  copied,
	}
}

// NewNotFound creates an error for a bundle that cannot be found by name.
func NewNotFound(name string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("bundle not found: %s", name),
	}
}

// NewCorruptStore wraps a decode or validation failure of persisted data.
func NewCorruptStore(err error) *Error {
	msg := "stored bundles are unreadable"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Error{
		Code:    ErrCorruptStore,
		Message: msg,
		Err:     err,
	}
}

// NewInvalidConfig creates an error for a preference that could not be used.
func NewInvalidConfig(key, value string, err error) *Error {
	msg := fmt.Sprintf("invalid value %q for %s", value, key)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Error{
		Code:    ErrInvalidConfig,
		Message: msg,
		Err:     err,
	}
}

// Is reports whether err, or anything it wraps, is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// FieldErrors returns the per-field messages of a validation error, or nil.
func FieldErrors(err error) map[string]string {
	var e *Error
	if stderrors.As(err, &e) && e.Code == ErrInvalidBundle {
		return e.Fields
	}
	return nil
}
