// Package repoerr is the failure taxonomy shared by every repository port.
//
// Adapters translate vendor failures into these kinds at the boundary; callers branch
// on KindOf (or errors.Is against the sentinels) and never on driver error codes.
package repoerr

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnknown   Kind = ""
	KindNotFound  Kind = "not_found"
	KindForbidden Kind = "forbidden"
	KindTransient Kind = "transient"
)

var (
	// ErrNotFound: the target resource (or its team) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: the resource exists but not within the caller's team scope.
	ErrForbidden = errors.New("forbidden")
	// ErrTransient: the backend could not be reached; the call may be retried.
	ErrTransient = errors.New("backend unavailable")
)

// KindOf classifies err. Context cancellation and deadline errors count as transient.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrTransient),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindTransient
	default:
		return KindUnknown
	}
}

// Retryable reports whether a caller may retry the operation as-is.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}

// Transient wraps cause so that it satisfies errors.Is(err, ErrTransient) while keeping
// the original error available to errors.As.
func Transient(op string, cause error) error {
	return &transientError{op: op, cause: cause}
}

type transientError struct {
	op    string
	cause error
}

func (e *transientError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.op, ErrTransient, e.cause)
}

func (e *transientError) Unwrap() []error { return []error{ErrTransient, e.cause} }
