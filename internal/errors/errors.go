// Package errors provides structured error handling for nmapfusion operations.
// It defines error codes, a common error type carrying file and operation
// context, and helpers for creating and classifying errors.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"

	// Input and parsing errors.
	CodeFileNotFound      ErrorCode = "FILE_NOT_FOUND"
	CodeFileUnreadable    ErrorCode = "FILE_UNREADABLE"
	CodeParseFailed       ErrorCode = "PARSE_FAILED"
	CodeFormatUnsupported ErrorCode = "FORMAT_UNSUPPORTED"

	// Fusion lifecycle errors.
	CodeNotFinalized ErrorCode = "NOT_FINALIZED"
	CodeNoHosts      ErrorCode = "NO_HOSTS"

	// Report generation errors.
	CodeReportFailed    ErrorCode = "REPORT_FAILED"
	CodeDirectoryCreate ErrorCode = "DIRECTORY_CREATE"
)

// FusionError represents an error that occurred while processing scan files
// or generating reports.
type FusionError struct {
	Code      ErrorCode
	Message   string
	File      string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *FusionError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("[%s] %s (file: %s)", e.Code, e.Message, e.File)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FusionError) Unwrap() error {
	return e.Cause
}

// New creates a new error with the specified code and message.
func New(code ErrorCode, message string) *FusionError {
	return &FusionError{Code: code, Message: message}
}

// Wrap creates a new error wrapping a cause.
func Wrap(code ErrorCode, message string, cause error) *FusionError {
	return &FusionError{Code: code, Message: message, Cause: cause}
}

// NewParseError creates an error for a scan file that could not be parsed.
func NewParseError(file string, cause error) *FusionError {
	return &FusionError{
		Code:      CodeParseFailed,
		Message:   "failed to parse scan file",
		File:      file,
		Operation: "parse",
		Cause:     cause,
	}
}

// NewFileError creates an error for a file that could not be read.
func NewFileError(file string, cause error) *FusionError {
	return &FusionError{
		Code:      CodeFileUnreadable,
		Message:   "failed to read input file",
		File:      file,
		Operation: "read",
		Cause:     cause,
	}
}

// NewNotFinalizedError signals that fusion results were requested before
// conflict resolution ran.
func NewNotFinalizedError(operation string) *FusionError {
	return &FusionError{
		Code:      CodeNotFinalized,
		Message:   "fusion results are not finalized; call ResolveConflicts first",
		Operation: operation,
	}
}

// NewReportError creates an error for a report that could not be generated.
func NewReportError(file string, cause error) *FusionError {
	return &FusionError{
		Code:      CodeReportFailed,
		Message:   "failed to generate report",
		File:      file,
		Operation: "report",
		Cause:     cause,
	}
}

// GetCode extracts the error code from any error, returning CodeUnknown for
// errors that are not FusionErrors.
func GetCode(err error) ErrorCode {
	var fe *FusionError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeUnknown
}

// IsCode reports whether the error carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
