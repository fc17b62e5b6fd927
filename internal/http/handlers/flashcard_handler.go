package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-idea-board/internal/domain"
	"github.com/tbourn/go-idea-board/internal/http/middleware"
)

// Flashcards renders the flashcard page with a first card already drawn.
func (h *Handlers) Flashcards(c *gin.Context) {
	card := h.nextCard(c)
	c.HTML(http.StatusOK, "flashcards.html", flashcardsPage{Title: "Flashcard Battle", Card: card})
}

// Flashcard godoc
// @ID          nextFlashcard
// @Summary     Draw a flashcard
// @Description Returns a trivia card. When generation fails the placeholder card is returned with 200.
// @Tags        Flashcards
// @Produce     html
// @Produce     json
// @Success     200  {object}  domain.Flashcard
// @Router      /flashcard [get]
func (h *Handlers) Flashcard(c *gin.Context) {
	card := h.nextCard(c)
	render(c, http.StatusOK, "flashcard.html", card, card)
}

func (h *Handlers) nextCard(c *gin.Context) domain.Flashcard {
	card, err := h.cardSvc.Next(c.Request.Context())
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("flashcard generation failed, serving placeholder")
	}
	return card
}
