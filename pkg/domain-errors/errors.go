// Package domainerrors provides coded errors for expected domain outcomes.
// Services return these instead of bare errors so transports can translate
// them without string matching, and so tests can assert on the code rather
// than the message.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are part of the API surface: handlers
// map them to HTTP statuses and callers branch on them.
type Code string

const (
	// CodeInvalidInput marks malformed identifiers or field values rejected
	// at a trust boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a structurally valid but unusable request.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks a missing or unusable caller identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authorization guard denial: the caller is not a
	// participant or holds the wrong role for the operation.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a referenced disc, event, or proposal that does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks an overlapping active recovery for the same disc.
	CodeConflict Code = "conflict"
	// CodePreconditionFailed marks a state that no longer matches what the
	// transition requires, including lost races detected at commit time.
	CodePreconditionFailed Code = "precondition_failed"
	// CodeTimeout marks an aborted operation whose context expired.
	CodeTimeout Code = "timeout"
	// CodeInternal marks a storage or infrastructure fault. Never carries
	// partially-applied state.
	CodeInternal Code = "internal"
)

// Error is the concrete coded error. Use New or Wrap; callers should inspect
// codes through HasCode rather than type-asserting.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is/errors.As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var coded *Error
		if !errors.As(err, &coded) {
			return false
		}
		if coded.Code == code {
			return true
		}
		err = coded.Err
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error is not coded.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}
