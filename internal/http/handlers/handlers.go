package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-idea-board/internal/domain"
	"github.com/tbourn/go-idea-board/internal/services"
	"github.com/tbourn/go-idea-board/internal/utils"
)

//
// Service contracts (context-aware)
//

// IdeaService defines the idea board operations consumed by HTTP handlers.
type IdeaService interface {
	// Generate creates (or, for a known idempotency key, replays) an idea.
	Generate(ctx context.Context, category, idemKey string) (services.GeneratedIdea, error)
	// Vote applies "up" or "down" to an idea and returns the new count.
	Vote(ctx context.Context, id uint, direction string) (int, error)
	// Leaderboard returns a page of ideas by votes and the total count.
	Leaderboard(ctx context.Context, page, pageSize int) ([]domain.Idea, int64, error)
}

// FlashcardService hands out trivia cards.
type FlashcardService interface {
	// Next returns a card; on generation failure the placeholder card and
	// the failure.
	Next(ctx context.Context) (domain.Flashcard, error)
}

// StoryService is the shared crowd story.
type StoryService interface {
	Sentences() []string
	Add(sentence string) ([]string, error)
	Limit() int
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the board.
type Handlers struct {
	ideaSvc  IdeaService
	cardSvc  FlashcardService
	storySvc StoryService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(ideaSvc IdeaService, cardSvc FlashcardService, storySvc StoryService) *Handlers {
	return &Handlers{ideaSvc: ideaSvc, cardSvc: cardSvc, storySvc: storySvc}
}

//
// DTOs
//

// GenerateRequest is the form (or JSON) payload of POST /generate.
type GenerateRequest struct {
	// Category is the theme of the idea; blank means "random".
	Category string `form:"category" json:"category" example:"AI"`
	// Keyword is accepted as an alias of Category.
	Keyword string `form:"keyword" json:"keyword" example:"AI"`
}

// category returns the trimmed category, falling back to the keyword alias.
func (r GenerateRequest) category() string {
	if s := strings.TrimSpace(r.Category); s != "" {
		return s
	}
	return strings.TrimSpace(r.Keyword)
}

// VoteResponse is the result of a vote.
type VoteResponse struct {
	Votes int  `json:"votes" example:"1"`
	ID    uint `json:"id" example:"1"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListIdeasResponse wraps a leaderboard page.
type ListIdeasResponse struct {
	Ideas      []domain.Idea `json:"ideas"`
	Pagination Pagination    `json:"pagination"`
}

// SentenceRequest is the form (or JSON) payload of POST /add-sentence.
type SentenceRequest struct {
	Sentence string `form:"sentence" json:"sentence" example:"A dragon appeared."`
}

// StoryResponse is the whole story in order.
type StoryResponse struct {
	Story []string `json:"story"`
}

//
// Page models
//

type homePage struct {
	Title string
}

type leaderboardPage struct {
	Title      string
	Ideas      []domain.Idea
	Pagination Pagination
	Start      int
}

type flashcardsPage struct {
	Title string
	Card  domain.Flashcard
}

type storyPage struct {
	Title     string
	Sentences []string
	MaxRunes  int
}

//
// Helpers
//

// maxCategoryRunes caps the category accepted by POST /generate.
const maxCategoryRunes = 100

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = max(utils.AtoiDefault(c.Query("page"), defaultPage), 1)
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// ideaID parses the :id path parameter, writing a 400 when it is not a
// positive integer.
func ideaID(c *gin.Context) (uint, bool) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "idea id must be a positive integer")
		return 0, false
	}
	return id, true
}

// etagMatches reports whether If-None-Match carries etag.
func etagMatches(c *gin.Context, etag string) bool {
	inm := c.GetHeader("If-None-Match")
	if inm == "" {
		return false
	}
	for _, v := range strings.Split(inm, ",") {
		if v = strings.TrimSpace(v); v == etag || v == "*" {
			return true
		}
	}
	return false
}

func itoa(n int) string { return strconv.Itoa(n) }
