package generation

import "github.com/tbourn/go-idea-board/internal/domain"

// Fixed values shown to users when generation fails.
const (
	SentinelIdea = "Oops! Could not generate an idea. Try again."

	sentinelQuestion = "Error generating question."
	sentinelAnswer   = "N/A"
)

// SentinelFlashcard returns the card shown when a flashcard cannot be
// generated. A fresh value is returned so callers may mutate it.
func SentinelFlashcard() domain.Flashcard {
	return domain.Flashcard{
		Question: sentinelQuestion,
		Answer:   sentinelAnswer,
		Choices:  []string{},
	}
}

// Outcome is the result of a generation call: Value is meaningful only when
// Err is nil.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Ok reports whether the call produced a value.
func (o Outcome[T]) Ok() bool { return o.Err == nil }

// Or returns the value, or fallback when the call failed.
func (o Outcome[T]) Or(fallback T) T {
	if o.Err != nil {
		return fallback
	}
	return o.Value
}

// OrSentinelIdea returns the idea text or SentinelIdea on failure.
func OrSentinelIdea(o Outcome[string]) string {
	return o.Or(SentinelIdea)
}

// OrSentinelFlashcard returns the card or SentinelFlashcard on failure.
func OrSentinelFlashcard(o Outcome[domain.Flashcard]) domain.Flashcard {
	if o.Err != nil {
		return SentinelFlashcard()
	}
	return o.Value
}
