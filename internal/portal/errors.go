package portal

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrPrecondition marks a violated engine invariant (a caller bug, never a
// user-facing condition).
var ErrPrecondition = errors.New("portal: precondition failed")

// ValidationError is raised before any network call when required input is
// missing or malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// EligibilityError blocks a reschedule the policy does not allow.
type EligibilityError struct {
	Reason  string
	Message string
}

func (e *EligibilityError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "reschedule not allowed: " + e.Reason
}

// NetworkError wraps a transport failure talking to the backend.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx backend reply. Message is the backend's own text
// and is shown to the user as-is.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Unauthorized reports whether the caller must re-authenticate.
func (e *ServerError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// ParseError reports a malformed timestamp on a record; the record is
// excluded from grouping and eligibility rather than failing the view.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err carries a 401/403 backend reply.
func IsUnauthorized(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Unauthorized()
}
