package services

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/tbourn/go-idea-board/internal/domain"
	"github.com/tbourn/go-idea-board/internal/generation"
)

// FlashcardGenerator produces a trivia card.
type FlashcardGenerator interface {
	Flashcard(ctx context.Context) generation.Outcome[domain.Flashcard]
}

// FlashcardService serves flashcards. It has no state of its own.
type FlashcardService struct {
	Gen FlashcardGenerator
}

// Next returns a card to show. On generation failure it returns the sentinel
// card together with the failure, which callers should only log.
func (s *FlashcardService) Next(ctx context.Context) (domain.Flashcard, error) {
	ctx, span := otel.Tracer("services/FlashcardService").Start(ctx, "Next")
	defer span.End()

	out := s.Gen.Flashcard(ctx)
	return generation.OrSentinelFlashcard(out), out.Err
}
