// Package services – StoryService
//
// This file implements the crowd story: an ordered, append-only list of
// sentences shared by every visitor for the lifetime of the process. The
// list is owned by a StoryService value and guarded by its own lock; the
// lock is held only while the slice is read or appended.
package services

import (
	"strings"
	"sync"
	"unicode/utf8"
)

// StorySeed is the first sentence of every new story.
const StorySeed = "Once upon a time, in a land far, far away..."

// DefaultMaxSentenceRunes caps a single contributed sentence.
const DefaultMaxSentenceRunes = 500

// StoryService holds the shared story.
type StoryService struct {
	mu        sync.RWMutex
	sentences []string

	// MaxRunes caps a sentence's length; zero disables the cap.
	MaxRunes int
}

// NewStoryService returns a story seeded with StorySeed.
func NewStoryService() *StoryService {
	return &StoryService{
		sentences: []string{StorySeed},
		MaxRunes:  DefaultMaxSentenceRunes,
	}
}

// Sentences returns a snapshot of the story in insertion order.
func (s *StoryService) Sentences() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.sentences))
	copy(out, s.sentences)
	return out
}

// Limit is the longest accepted sentence in runes; zero means no cap.
func (s *StoryService) Limit() int { return s.MaxRunes }

// Add trims sentence and appends it. Blank input is ignored without error.
// It returns the story after the call.
func (s *StoryService) Add(sentence string) ([]string, error) {
	sentence = strings.TrimSpace(sentence)
	if s.MaxRunes > 0 && utf8.RuneCountInString(sentence) > s.MaxRunes {
		return nil, ErrSentenceTooLong
	}

	s.mu.Lock()
	if sentence != "" {
		s.sentences = append(s.sentences, sentence)
	}
	out := make([]string, len(s.sentences))
	copy(out, s.sentences)
	s.mu.Unlock()

	return out, nil
}
