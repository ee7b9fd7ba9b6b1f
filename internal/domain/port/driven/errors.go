// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by remote API adapters.
var (
	// ErrNotFound indicates the remote entity does not exist.
	ErrNotFound = errors.New("remote entity not found")

	// ErrUserNotFound indicates a username does not resolve to exactly one
	// remote user.
	ErrUserNotFound = errors.New("remote user not found")
)

// RemoteFetchError reports a failed call to a remote API: a transport error
// or a non-2xx response. Callers decide whether to retry, skip or abort; the
// adapters never retry on their own.
type RemoteFetchError struct {
	Op         string // e.g. "fetch node 123".
	StatusCode int    // Zero for transport failures.
	Err        error
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
