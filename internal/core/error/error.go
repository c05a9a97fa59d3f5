package errx

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a workflow failure so callers can react programmatically
// instead of matching on message text.
type Kind string

const (
	// KindValidation marks malformed or out-of-domain input to a stage.
	// Recoverable: the caller should correct the input and retry.
	KindValidation Kind = "validation"
	// KindInvalidState marks a stage operation invoked before its
	// prerequisite approval. Recoverable: the caller must redo the ordering.
	KindInvalidState Kind = "invalid_state"
	// KindNotFound marks an unknown session, goal or plan reference.
	KindNotFound Kind = "not_found"
	// KindBackend marks an unreachable or erroring graph store / model
	// provider. The session is left in its last good state and the
	// operation is safely retryable.
	KindBackend Kind = "backend"
	// KindPartialData marks soft per-row failures counted during
	// construction. Never fatal to the enclosing batch.
	KindPartialData Kind = "partial_data"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "key not found"
	// GraphErrorMessage describes graph backend failures.
	GraphErrorMessage = "graph backend operation failed"
)

// Error wraps an underlying error with a Kind and a safe message. Details
// carry the specific violated rules, offending paths or dangling endpoints
// so callers can react to each one.
type Error struct {
	Err     error
	Kind    Kind
	Message string
	Details []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Details, "; "))
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string, details ...string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// Wrap attaches a kind and safe message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{
		Err:     err,
		Kind:    kind,
		Message: message,
	}
}

// Validation creates a KindValidation error naming the violated rule(s).
func Validation(message string, details ...string) *Error {
	return New(KindValidation, message, details...)
}

// InvalidState creates a KindInvalidState error.
func InvalidState(message string) *Error {
	return New(KindInvalidState, message)
}

// NotFound creates a KindNotFound error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// KindOf returns the Kind of err, or the empty Kind when err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// DetailsOf returns the detail strings of err, or nil when err carries none.
func DetailsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}
