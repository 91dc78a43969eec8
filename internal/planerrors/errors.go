// Package planerrors defines the error taxonomy shared across plan-marshall's
// core subsystems. Each kind is a sentinel that callers match with
// errors.Is; a Kind carries a human message and wraps an optional cause the
// way per-package sentinel files do elsewhere, generalized into one shared
// taxonomy so the Dispatcher can classify errors from every subsystem
// uniformly.
package planerrors

import (
	"errors"
	"fmt"
)

// Kind is one of the eight error taxonomy members.
type Kind string

const (
	// KindInvalidInput marks parameters that fail schema validation. Returned
	// to the caller directly; the plan never enters the lifecycle.
	KindInvalidInput Kind = "InvalidInput"

	// KindNotFound marks a named entity that does not exist.
	KindNotFound Kind = "NotFound"

	// KindAlreadyExists marks a create-style operation on a present entity.
	KindAlreadyExists Kind = "AlreadyExists"

	// KindInvariantViolation marks an artifact write that would break a
	// declared invariant.
	KindInvariantViolation Kind = "InvariantViolation"

	// KindLockTimeout marks a transient failure to acquire a document lock.
	KindLockTimeout Kind = "LockTimeout"

	// KindExternalCommandFailed marks a wrapped external command failure.
	KindExternalCommandFailed Kind = "ExternalCommandFailed"

	// KindTimeout is a specialization of KindExternalCommandFailed for the
	// case where the command was killed by the outer deadline.
	KindTimeout Kind = "Timeout"

	// KindQGateUnresolved marks a phase whose Q-Gate re-entry cap was
	// exhausted with findings still pending.
	KindQGateUnresolved Kind = "QGateUnresolved"
)

// Error is a classified plan-marshall error. Wrap with fmt.Errorf("...: %w")
// to attach this Kind to arbitrary causes while preserving errors.Is/As.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, planerrors.New(KindNotFound, "")) style sentinel checks
// work regardless of Message/Cause.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an existing error under kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinels for errors.Is comparisons where no message/cause is needed.
var (
	ErrInvalidInput          = New(KindInvalidInput, "invalid input")
	ErrNotFound              = New(KindNotFound, "not found")
	ErrAlreadyExists         = New(KindAlreadyExists, "already exists")
	ErrInvariantViolation    = New(KindInvariantViolation, "invariant violation")
	ErrLockTimeout           = New(KindLockTimeout, "lock timeout")
	ErrExternalCommandFailed = New(KindExternalCommandFailed, "external command failed")
	ErrTimeout               = New(KindTimeout, "timeout")
	ErrQGateUnresolved       = New(KindQGateUnresolved, "q-gate unresolved")
)

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// ExitCode maps a Kind to the process exit code contract.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if !errors.As(err, &e) {
		return 1
	}
	switch e.Kind {
	case KindInvalidInput, KindInvariantViolation, KindAlreadyExists, KindQGateUnresolved, KindNotFound:
		return 1
	case KindLockTimeout:
		return 2
	case KindTimeout:
		return 124
	case KindExternalCommandFailed:
		return 1
	default:
		return 1
	}
}
