// Package errors provides structured error types for infograph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, loader, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input or payload validation failures
//   - *_NOT_FOUND: Referenced document, page or widget does not exist
//   - SCHEMA_*: Widget schema configuration and version problems
//   - STORAGE / INTERNAL: Backend and unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRecord, "record %s has no data", path)
//	if errors.Is(err, errors.ErrCodeInvalidRecord) {
//	    // Abort the load
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "load %s", id)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidRecord  Code = "INVALID_RECORD"
	ErrCodeInvalidCommand Code = "INVALID_COMMAND"
	ErrCodeInvalidTree    Code = "INVALID_TREE"
	ErrCodeInvalidID      Code = "INVALID_ID"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInconsistent   Code = "INCONSISTENT_DOCUMENT"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"
	ErrCodePageNotFound     Code = "PAGE_NOT_FOUND"
	ErrCodeWidgetNotFound   Code = "WIDGET_NOT_FOUND"

	// Schema errors
	ErrCodeSchemaConfig  Code = "SCHEMA_CONFIG"
	ErrCodeSchemaVersion Code = "SCHEMA_VERSION"

	// Backend and internal errors
	ErrCodeStorage     Code = "STORAGE"
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
// It unwraps the error chain looking for an *Error with a matching code.
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

// IsNotFound reports whether err carries any of the not-found codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeDocumentNotFound, ErrCodePageNotFound, ErrCodeWidgetNotFound:
		return true
	}
	return false
}
