package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	// ErrValidation covers an unrecognized column schema or a sheet that
	// yields zero valid rows.
	ErrValidation ErrorKind = iota
	// ErrIO covers read/write failures on temporary or output artifacts.
	ErrIO
	// ErrCorruption covers a post-write row-count mismatch or an
	// unreadable generated artifact.
	ErrCorruption
	// ErrNotFound covers an unknown job id or a missing artifact.
	ErrNotFound
	// ErrState covers a download requested before the job completed.
	ErrState
	ErrUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case ErrValidation:
		return "Validation"
	case ErrIO:
		return "IO"
	case ErrCorruption:
		return "Corruption"
	case ErrNotFound:
		return "NotFound"
	case ErrState:
		return "State"
	default:
		return "Unknown"
	}
}

// Error is the result type failures travel in: a tagged kind, a
// user-facing message, optional key/value context and the wrapped cause.
// Pipeline failures are returned, never thrown across layers; the
// orchestrator records them into the job's terminal state and the HTTP
// boundary maps kinds to status codes.
type Error struct {
	Kind    ErrorKind
	Message string
	Context map[string]any
	Cause   error
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(kind ErrorKind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Kind.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

func IsKind(err error, kind ErrorKind) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind == kind
	}
	return false
}

func WrapError(err error, kind ErrorKind, message string) *Error {
	return NewErrorWithCause(kind, message, err)
}
