// Package generation wraps hosted text-generation providers behind a small,
// typed client used by the idea and flashcard workflows.
//
// Every call returns an Outcome: either a value or one of the sentinel errors
// below. Callers that only need something to show a user can fall back to the
// fixed sentinel values via OrSentinelIdea and OrSentinelFlashcard.
package generation

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUpstream reports a transport failure or a non-2xx provider response.
	ErrUpstream = errors.New("generation: upstream failure")

	// ErrMalformed reports a provider reply that could not be parsed or that
	// lacks a required field.
	ErrMalformed = errors.New("generation: malformed response")

	// ErrTimeout reports that the call did not finish within the configured
	// generation timeout.
	ErrTimeout = errors.New("generation: timed out")
)

// StatusError carries the HTTP status of a failed provider call. It always
// unwraps to ErrUpstream.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generation: provider returned status %d", e.Code)
	}
	return fmt.Sprintf("generation: provider returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// transientStatus reports whether a provider status is worth retrying.
func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// malformedf wraps ErrMalformed with detail.
func malformedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// upstream wraps a transport error as ErrUpstream, keeping the cause visible.
func upstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}
