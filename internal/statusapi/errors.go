package statusapi

import (
	"context"
	"net"

	"github.com/juju/errors"
)

const (
	// ErrFetchFailed is returned when the service list could not be
	// retrieved: network failure or a non-2xx answer to GET /service.
	ErrFetchFailed = errors.ConstError("fetch failed")

	// ErrTimeout is returned when any call exceeds the configured request
	// timeout. It is kept apart from ErrFetchFailed so it can be reported
	// differently.
	ErrTimeout = errors.ConstError("request timed out")

	// ErrDecodeFailed is returned when GET /service answers with a body that
	// is not a {"services": [...]} document.
	ErrDecodeFailed = errors.ConstError("malformed response")

	// ErrMutationFailed is returned when POST or DELETE fails.
	ErrMutationFailed = errors.ConstError("mutation failed")
)

// Kind returns the error kind of err, or "" when err is nil or not one of
// ours.
func Kind(err error) errors.ConstError {
	for _, kind := range []errors.ConstError{ErrTimeout, ErrDecodeFailed, ErrMutationFailed, ErrFetchFailed} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ""
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classify attaches kind to err, or ErrTimeout when err is a timeout.
func classify(err error, kind errors.ConstError) error {
	if isTimeout(err) {
		return errors.WithType(err, ErrTimeout)
	}
	return errors.WithType(err, kind)
}
