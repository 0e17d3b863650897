package remote

import (
	"errors"
	"fmt"
)

// Error is a transport, auth, or server failure during a remote call.
// Downloads and tree fetches never retry internally; the error propagates to
// the caller, which notifies the user and leaves prior state intact.
type Error struct {
	// Op names the failed operation, e.g. "execute query", "fetch details".
	Op string

	// Status is the HTTP status code, 0 for transport-level failures.
	Status int

	Err error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote: %s: server returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("remote: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRemote reports whether err is (or wraps) a remote failure.
func IsRemote(err error) bool {
	var re *Error
	return errors.As(err, &re)
}
