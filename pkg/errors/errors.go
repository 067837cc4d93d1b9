package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown  ErrorCode = "UNKNOWN"
	ErrInternal ErrorCode = "INTERNAL"

	// Configuration errors (fatal at startup, before any I/O side effect)
	ErrConfigInvalid   ErrorCode = "CONFIG_INVALID"
	ErrPatternInvalid  ErrorCode = "PATTERN_INVALID"
	ErrModeInvalid     ErrorCode = "MODE_INVALID"
	ErrModeUnreadable  ErrorCode = "MODE_UNREADABLE"
	ErrEncodingInvalid ErrorCode = "ENCODING_INVALID"

	// Template errors
	ErrTemplateRead ErrorCode = "TEMPLATE_READ"

	// Prompt errors
	ErrPromptFailed ErrorCode = "PROMPT_FAILED"

	// Delivery errors
	ErrTargetTypeViolation ErrorCode = "TARGET_TYPE_VIOLATION"
	ErrTargetMissing       ErrorCode = "TARGET_MISSING"
	ErrReaderGone          ErrorCode = "READER_GONE"
	ErrResourceRace        ErrorCode = "RESOURCE_RACE"
	ErrIOFailure           ErrorCode = "IO_FAILURE"
)

// PipeError represents a structured error with code and details
type PipeError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PipeError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PipeError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PipeError) Is(target error) bool {
	var targetErr *PipeError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PipeError with the given code and message
func New(code ErrorCode, message string) *PipeError {
	return &PipeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PipeError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PipeError {
	return &PipeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PipeError
func Wrap(err error, code ErrorCode, message string) *PipeError {
	if err == nil {
		return nil
	}
	return &PipeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PipeError {
	if err == nil {
		return nil
	}
	return &PipeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PipeError) WithDetail(key string, value interface{}) *PipeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var pipeErr *PipeError
	if errors.As(err, &pipeErr) {
		return pipeErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PipeError
func GetErrorCode(err error) ErrorCode {
	var pipeErr *PipeError
	if errors.As(err, &pipeErr) {
		return pipeErr.Code
	}
	return ErrUnknown
}
