package craby

import (
	"context"
	"fmt"

	"github.com/l2hyunwoo/craby/internal/errors"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeTypeMismatch     ErrorCode = "type_mismatch"
	CodePromiseRejected  ErrorCode = "promise_rejected"
	CodeCallAborted      ErrorCode = "call_aborted"
	CodeInvalidArgument  ErrorCode = "invalid_argument"
	CodeNotFound         ErrorCode = "not_found"
	CodeNotImplemented   ErrorCode = "not_implemented"
	CodeCanceled         ErrorCode = "canceled"
	CodeDeadlineExceeded ErrorCode = "deadline_exceeded"
	CodeInternal         ErrorCode = "internal"
)

// Error is a call failure that carries only a code and a message.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new call error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new call error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// TypeMismatchError reports a boundary value that does not satisfy its
// declared type: a wrong kind, a missing mandatory field or an
// unrecognized enum value.
type TypeMismatchError struct {
	// Path locates the value, e.g. "Profile.address.city" or "add.a".
	Path     string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("TypeMismatch: %s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

func (*TypeMismatchError) Code() ErrorCode { return CodeTypeMismatch }

// PromiseRejection is the failure a deferred call settles its promise with.
type PromiseRejection struct {
	Method  string
	Message string
	Cause   error
}

func (e *PromiseRejection) Error() string {
	if e.Method == "" {
		return "promise rejected: " + e.Message
	}
	return fmt.Sprintf("%s: promise rejected: %s", e.Method, e.Message)
}

func (e *PromiseRejection) Unwrap() error { return e.Cause }

func (*PromiseRejection) Code() ErrorCode { return CodePromiseRejected }

// DirectCallAbort reports a direct call whose implementation panicked.
// The call produces no result; the process keeps running.
type DirectCallAbort struct {
	Method string
	Panic  any
	Stack  []byte
}

func (e *DirectCallAbort) Error() string {
	return fmt.Sprintf("%s: call aborted: %v", e.Method, e.Panic)
}

func (*DirectCallAbort) Code() ErrorCode { return CodeCallAborted }

// CodeOf maps any error to its ErrorCode. Errors without a code are
// internal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var callErr *Error
	if errors.As(err, &callErr) {
		return callErr.Code
	}
	var coded interface{ Code() ErrorCode }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeDeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	return CodeInternal
}
