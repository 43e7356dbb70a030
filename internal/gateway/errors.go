package gateway

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when a cookie-based call comes back 401:
// the backend no longer recognizes a session for this client.
var ErrUnauthenticated = errors.New("gateway: not authenticated")

// RejectedError is a non-2xx response from the backend. Detail carries the
// server-provided message, which is surfaced to the user verbatim.
type RejectedError struct {
	StatusCode int
	Detail     string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("gateway: rejected (%d): %s", e.StatusCode, e.Detail)
}

// MalformedError is a 2xx response whose body does not parse as the
// expected user-record shape.
type MalformedError struct {
	Endpoint string
	Err      error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("gateway: malformed response from %s: %v", e.Endpoint, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// asUnauthenticated collapses a 401 rejection into ErrUnauthenticated for
// cookie-based calls, where a 401 means "no session" rather than a request
// the user should see a detail message for.
func asUnauthenticated(err error) error {
	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected.StatusCode == 401 {
		return ErrUnauthenticated
	}
	return err
}
