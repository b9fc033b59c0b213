// Package errors provides structured error types for flowboard.
//
// Every error that crosses a package boundary toward the CLI, the HTTP
// server or the MCP tool server carries a [Code], so callers can decide how
// to present it without string matching. Lower layers keep wrapping with
// fmt.Errorf and %w; only the boundary types in this package are coded.
//
// # Error Codes
//
//   - INVALID_*: malformed input (ids, payload edits, import documents)
//   - NOT_FOUND, UNKNOWN_DEFINITION: missing instances or definitions
//   - NETWORK_ERROR, BACKEND_ERROR: the processing backend failed
//   - STORE_ERROR: the durable store failed
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownDefinition, "no definition %q", id)
//	if errors.Is(err, errors.ErrCodeUnknownDefinition) {
//	    // skip the item
//	}
//
//	err = errors.Wrap(errors.ErrCodeBackend, cause, "summarize")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidID     Code = "INVALID_ID"

	// Resource not found errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeUnknownDefinition Code = "UNKNOWN_DEFINITION"

	// Remote errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeBackend Code = "BACKEND_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Local durable store errors
	ErrCodeStore Code = "STORE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// The outermost *Error in the chain decides.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err is one of the not-found codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeUnknownDefinition:
		return true
	}
	return false
}

// IsRemote reports whether err came from the processing backend.
func IsRemote(err error) bool {
	switch GetCode(err) {
	case ErrCodeNetwork, ErrCodeBackend, ErrCodeTimeout:
		return true
	}
	return false
}
