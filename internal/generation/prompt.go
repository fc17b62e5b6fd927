package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tbourn/go-idea-board/internal/domain"
)

// Kind names what a prompt asks for. It doubles as the metrics label.
type Kind string

const (
	KindIdea      Kind = "idea"
	KindFlashcard Kind = "flashcard"
)

// DefaultCategory is used when a caller submits a blank category.
const DefaultCategory = "random"

const (
	ideaPersona      = "You are a creative hackathon mentor."
	flashcardPersona = "You are an unpredictable quiz master."
)

// Prompt is a provider-neutral request: a system persona, an instruction and
// sampling settings. Category is carried so offline providers can answer
// without parsing the instruction text.
type Prompt struct {
	Kind        Kind
	System      string
	User        string
	Category    string
	Temperature float64
	JSON        bool
}

func ideaPrompt(category string, temperature float64) Prompt {
	user := fmt.Sprintf(`Task:
Suggest one original hackathon project idea in the category "%s".
Keep it to a single sentence a team could build in a weekend.

Response:
Reply with valid json.

Format:
{
  "idea": "..."
}`, category)
	return Prompt{
		Kind:        KindIdea,
		System:      ideaPersona,
		User:        user,
		Category:    category,
		Temperature: temperature,
		JSON:        true,
	}
}

const flashcardInstruction = `Task:
Generate a challenging trivia question with four answer choices.

Response:
Reply with valid json.

Format:
{
  "question": "...",
  "answer": "...",
  "choices": ["...", "...", "...", "..."]
}`

func flashcardPrompt(temperature float64) Prompt {
	return Prompt{
		Kind:        KindFlashcard,
		System:      flashcardPersona,
		User:        flashcardInstruction,
		Temperature: temperature,
		JSON:        true,
	}
}

// parseIdea accepts either {"idea": "..."} or plain text. A JSON object
// without a usable idea field is malformed.
func parseIdea(raw string) (string, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return "", malformedf("empty reply")
	}
	if strings.HasPrefix(text, "{") {
		var body struct {
			Idea *string `json:"idea"`
		}
		if err := json.Unmarshal([]byte(text), &body); err != nil {
			return "", malformedf("invalid json: %v", err)
		}
		if body.Idea == nil || strings.TrimSpace(*body.Idea) == "" {
			return "", malformedf("missing idea field")
		}
		return strings.TrimSpace(*body.Idea), nil
	}
	return text, nil
}

// parseFlashcard requires a JSON object with a non-empty question and answer.
// Missing choices are normalized to an empty list.
func parseFlashcard(raw string) (domain.Flashcard, error) {
	text := stripCodeFence(raw)
	var card domain.Flashcard
	if err := json.Unmarshal([]byte(text), &card); err != nil {
		return domain.Flashcard{}, malformedf("invalid json: %v", err)
	}
	card.Question = strings.TrimSpace(card.Question)
	card.Answer = strings.TrimSpace(card.Answer)
	if card.Question == "" || card.Answer == "" {
		return domain.Flashcard{}, malformedf("missing question or answer")
	}
	if card.Choices == nil {
		card.Choices = []string{}
	}
	return card, nil
}

// stripCodeFence removes a leading ```json (or ```) fence and a trailing ```.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
