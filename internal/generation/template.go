package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/tbourn/go-idea-board/internal/domain"
)

var ideaTemplates = []string{
	"A social network for {keyword} enthusiasts.",
	"A {keyword}-themed AI chatbot.",
	"An open-source {keyword} tool for developers.",
	"A mobile app that helps people learn {keyword} interactively.",
	"A decentralized platform for {keyword} collaboration.",
	"A {keyword} marketplace for buying and selling digital assets.",
}

var flashcardDeck = []domain.Flashcard{
	{Question: "What is the capital of France?", Answer: "Paris"},
	{Question: "What is 2 + 2?", Answer: "4"},
	{Question: "What is the speed of light?", Answer: "299,792,458 m/s"},
}

// Template is an offline provider: ideas come from fixed sentence templates
// with the category substituted, flashcards from a built-in deck. Replies are
// encoded the same way a hosted model is asked to answer.
type Template struct {
	pick func(n int) int
}

// NewTemplate returns a template provider. pick selects an index in [0,n);
// nil uses math/rand.
func NewTemplate(pick func(n int) int) *Template {
	if pick == nil {
		pick = rand.IntN
	}
	return &Template{pick: pick}
}

func (t *Template) Name() string { return "template" }

func (t *Template) Complete(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var v any
	switch p.Kind {
	case KindIdea:
		tpl := ideaTemplates[t.pick(len(ideaTemplates))]
		v = map[string]string{"idea": strings.Replace(tpl, "{keyword}", p.Category, 1)}
	case KindFlashcard:
		v = flashcardDeck[t.pick(len(flashcardDeck))]
	default:
		return "", fmt.Errorf("generation: template provider cannot answer %q", p.Kind)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
