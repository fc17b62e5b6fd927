package domain

// Flashcard is a single trivia question. It is never persisted.
type Flashcard struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Choices  []string `json:"choices"`
}
