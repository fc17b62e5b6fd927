package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-idea-board/internal/domain"
	"github.com/tbourn/go-idea-board/internal/generation"
	"github.com/tbourn/go-idea-board/internal/services"
)

func TestFlashcards_PageHasFirstCard(t *testing.T) {
	cards := stubCards{card: domain.Flashcard{Question: "What is the capital of France?", Answer: "Paris", Choices: []string{"Paris", "Rome"}}}
	r := newEngine(New(&stubIdeas{}, cards, services.NewStoryService()))

	w := do(r, http.MethodGet, "/flashcards", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"What is the capital of France?", "<li>Rome</li>", `hx-get="/flashcard"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q:\n%s", want, body)
		}
	}
}

func TestFlashcard_FragmentAndJSON(t *testing.T) {
	cards := stubCards{card: domain.Flashcard{Question: "What is 2 + 2?", Answer: "4", Choices: []string{}}}
	r := newEngine(New(&stubIdeas{}, cards, services.NewStoryService()))

	w := do(r, http.MethodGet, "/flashcard", "", map[string]string{"HX-Request": "true"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `class="flashcard"`) || strings.Contains(w.Body.String(), "<html") {
		t.Fatalf("fragment: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/flashcard", "", jsonAccept)
	var got domain.Flashcard
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got.Question != "What is 2 + 2?" || got.Answer != "4" || got.Choices == nil {
		t.Fatalf("unexpected card: %+v", got)
	}
}

func TestFlashcard_FailureServesSentinelWith200(t *testing.T) {
	svc := &services.FlashcardService{Gen: failingCards{}}
	r := newEngine(New(&stubIdeas{}, svc, services.NewStoryService()))

	w := do(r, http.MethodGet, "/flashcard", "", jsonAccept)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"question":"Error generating question.","answer":"N/A","choices":[]}` {
		t.Fatalf("unexpected sentinel body: %s", w.Body.String())
	}
}

type failingCards struct{}

func (failingCards) Flashcard(_ context.Context) generation.Outcome[domain.Flashcard] {
	return generation.Outcome[domain.Flashcard]{Err: generation.ErrTimeout}
}
