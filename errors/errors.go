// Package errors defines the failure taxonomy shared by storage,
// coordination, and transport layers. Storage failures are surfaced to
// the caller once and never retried silently; conflicts are resolved by
// a single bounded retry inside the coordinator and never escape it.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is a lookup miss. The caller decides whether that is
	// an error or expected absence.
	ErrNotFound = fmt.Errorf("not found")

	// ErrConflict means a concurrent writer won a conditional insert.
	ErrConflict = fmt.Errorf("conflict")

	// ErrStorageUnavailable is fatal to the current operation. The
	// client retries the whole user action, not this layer.
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")

	// ErrUnauthenticated means the request carried no usable identity
	// where the handler requires one.
	ErrUnauthenticated = fmt.Errorf("unauthenticated")

	// ErrAlreadyRegistered means the identity already has a profile.
	ErrAlreadyRegistered = fmt.Errorf("already registered")

	// ErrUsernameTaken means the requested username is not available.
	ErrUsernameTaken = fmt.Errorf("username taken")

	// ErrWorkerPanic marks a supervised worker that crashed and was
	// recovered.
	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// MapToHTTPStatus translates the taxonomy to a response code at the
// transport boundary. Anything unrecognized is an internal error.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
