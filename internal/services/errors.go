// Package services defines the business logic for ideas, flashcards, and the
// shared story. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Idea-related errors.
var (
	// ErrIdeaNotFound indicates that no idea exists with the requested id.
	// It is distinct from an idea that exists with zero votes.
	ErrIdeaNotFound = errors.New("idea not found")

	// ErrInvalidDirection is returned when a vote direction is neither "up"
	// nor "down".
	ErrInvalidDirection = errors.New("vote direction must be up or down")
)

// Story-related errors.
var (
	// ErrSentenceTooLong is returned when a submitted sentence exceeds the
	// configured maximum rune length.
	ErrSentenceTooLong = errors.New("sentence too long")
)
