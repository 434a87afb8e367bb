package function

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures that cross the subsystem boundary.
type ErrorKind string

const (
	KindValidationFailed    ErrorKind = "ValidationFailed"
	KindCompilationRejected ErrorKind = "CompilationRejected"
	KindNotFound            ErrorKind = "NotFound"
	KindNameConflict        ErrorKind = "NameConflict"
	KindStorageCorrupted    ErrorKind = "StorageCorrupted"
	KindParameterValidation ErrorKind = "ParameterValidation"
	KindExecutionError      ErrorKind = "ExecutionError"
	KindTimeout             ErrorKind = "Timeout"
	KindInternal            ErrorKind = "Internal"
)

// Sentinels for errors.Is checks. Any *Error with the same Kind matches.
var (
	ErrValidationFailed    = &Error{Kind: KindValidationFailed, Message: "validation failed"}
	ErrCompilationRejected = &Error{Kind: KindCompilationRejected, Message: "compilation rejected"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "function not found"}
	ErrNameConflict        = &Error{Kind: KindNameConflict, Message: "function name already in use"}
	ErrStorageCorrupted    = &Error{Kind: KindStorageCorrupted, Message: "function storage is corrupted"}
	ErrParameterValidation = &Error{Kind: KindParameterValidation, Message: "parameter validation failed"}
	ErrExecution           = &Error{Kind: KindExecutionError, Message: "execution failed"}
	ErrTimeout             = &Error{Kind: KindTimeout, Message: "execution timed out"}
)

// Error is a classified subsystem error. Validation failures carry the full
// list of issues so a caller can render every diagnostic at once.
type Error struct {
	Kind    ErrorKind
	Message string
	Issues  []Issue
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates a classified error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// ValidationError builds a ValidationFailed error from a validation result.
func ValidationError(result ValidationResult) *Error {
	msg := "definition has validation errors"
	if len(result.Errors) > 0 {
		msg = result.Errors[0].String()
		if n := len(result.Errors) - 1; n > 0 {
			msg = fmt.Sprintf("%s (and %d more)", msg, n)
		}
	}
	return &Error{Kind: KindValidationFailed, Message: msg, Issues: result.Errors}
}

// KindOf extracts the ErrorKind from err, or KindInternal for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IssuesOf extracts validation issues carried by err, if any.
func IssuesOf(err error) []Issue {
	var e *Error
	if errors.As(err, &e) {
		return e.Issues
	}
	return nil
}

// MessageOf returns the error text without the kind prefix, for responses
// that carry the kind separately.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message
		if e.Err != nil {
			if msg != "" {
				msg += ": "
			}
			msg += e.Err.Error()
		}
		return msg
	}
	return err.Error()
}
