package client

import "fmt"

// AuthError is raised when the API rejects the request credentials. It is
// fatal to the calling operation and never retried: the server-side check
// is deterministic for a given key pair.
type AuthError struct {
	Status int
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (HTTP %d): %s", e.Status, e.Reason)
}

// MalformedResponseError is raised when a response body is present but is
// not valid JSON. It carries the raw body so callers can diagnose the
// failure without re-issuing the request.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed API response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
