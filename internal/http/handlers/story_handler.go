package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-idea-board/internal/services"
)

// Story renders the crowd story page.
func (h *Handlers) Story(c *gin.Context) {
	c.HTML(http.StatusOK, "story_page.html", storyPage{
		Title:     "Crowd Story",
		Sentences: h.storySvc.Sentences(),
		MaxRunes:  h.storySvc.Limit(),
	})
}

// AddSentence godoc
// @ID          addSentence
// @Summary     Append a sentence to the story
// @Description Trims the sentence and appends it; blank sentences are ignored. Returns the whole story.
// @Tags        Story
// @Accept      x-www-form-urlencoded
// @Accept      json
// @Produce     html
// @Produce     json
// @Param       sentence  formData  string  false  "Next sentence"  example(A dragon appeared.)
// @Success     200  {object}  handlers.StoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Sentence too long"
// @Router      /add-sentence [post]
func (h *Handlers) AddSentence(c *gin.Context) {
	var req SentenceRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	story, err := h.storySvc.Add(req.Sentence)
	if errors.Is(err, services.ErrSentenceTooLong) {
		fail(c, http.StatusBadRequest, ErrCodeSentenceTooLong,
			"sentence must be at most "+itoa(h.storySvc.Limit())+" characters")
		return
	}
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not add the sentence")
		return
	}

	render(c, http.StatusOK, "story.html",
		storyPage{Sentences: story},
		StoryResponse{Story: story},
	)
}
