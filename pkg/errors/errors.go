package errors

import "fmt"

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeUnsupportedLevel indicates a severity token outside the supported set.
	ErrCodeUnsupportedLevel ErrorCode = "UNSUPPORTED_LEVEL"
	// ErrCodeInvalidConfig indicates a configuration value that cannot be used.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeAlreadyInstalled indicates a second attempt to install process-wide state.
	ErrCodeAlreadyInstalled ErrorCode = "ALREADY_INSTALLED"
	// ErrCodeUnavailable indicates a resource (socket, file, remote server) could not be acquired.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	// ErrCodeInternal indicates an internal system error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError carries an error code for programmatic handling, a
// human-readable message and the underlying cause.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first StructuredError in err's chain, or an
// empty code when there is none.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if se, ok := err.(*StructuredError); ok {
			return se.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
