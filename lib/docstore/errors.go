package docstore

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// ErrorKind classifies operation failures.
type ErrorKind int

const (
	// KindBadRequest marks malformed or empty input.
	KindBadRequest ErrorKind = iota
	// KindNotFound marks an absent namespace or document.
	KindNotFound
	// KindConflict marks a duplicate namespace or document.
	KindConflict
	// KindEngine marks an unexpected failure from the storage engine.
	KindEngine
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "BadRequest"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindEngine:
		return "EngineFailure"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the failure value returned by every document store operation.
// It wraps an ErrorKind and a message; the HTTP-style status code is
// derived from the kind.
type Error struct {
	Kind ErrorKind // The failure classification
	Msg  string    // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("DocStoreError (%s): %s", e.Kind, e.Msg)
}

// Status returns the HTTP-style status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest:
		return 400
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	default:
		return 500
	}
}

// NewError creates a new Error with the given kind and message.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// newBadRequest creates a BadRequest error.
func newBadRequest(msg string) *Error {
	return NewError(KindBadRequest, msg)
}

// newNotFound creates a NotFound error.
func newNotFound(msg string) *Error {
	return NewError(KindNotFound, msg)
}

// newConflict creates a Conflict error.
func newConflict(msg string) *Error {
	return NewError(KindConflict, msg)
}

// newEngineError wraps an unexpected engine failure. The failure is
// logged with the operation name before conversion so the original
// context is not lost at the value boundary.
func newEngineError(op string, err error) *Error {
	Logger.Errorf("%s: engine failure: %v", op, err)
	return NewError(KindEngine, err.Error())
}

// asStoreError returns err unchanged if it already is a *Error,
// otherwise it wraps it as an engine failure for the given operation.
// Used after engine.Region.Update, which passes store errors raised
// inside the transaction callback through verbatim.
func asStoreError(op string, err error) *Error {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr
	}
	return newEngineError(op, err)
}
