// Idea HTTP handlers.
//
// This file exposes the idea board endpoints:
//   - GET  /               (generator page)
//   - POST /generate       (create an idea, idempotent with Idempotency-Key)
//   - POST /vote-up/{id}   (+1)
//   - POST /vote-down/{id} (-1)
//   - GET  /ideas          (leaderboard, paginated, ETag support)
//
// HTML is the default representation; see response.go for negotiation.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-idea-board/internal/http/middleware"
	"github.com/tbourn/go-idea-board/internal/repo"
	"github.com/tbourn/go-idea-board/internal/services"
)

// HeaderIdempotencyReplayed marks a response that replays an earlier idea.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// Home renders the idea generator page.
func (h *Handlers) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", homePage{Title: "Idea Generator"})
}

// Generate godoc
// @ID          generateIdea
// @Summary     Generate an idea
// @Description Generates a hackathon idea for a category and stores it with zero votes. When generation fails a placeholder text is stored instead. Responds with an HTML fragment unless JSON is preferred.
// @Tags        Ideas
// @Accept      x-www-form-urlencoded
// @Accept      json
// @Produce     html
// @Produce     json
//
// @Param       Idempotency-Key  header    string  false  "Replays the first idea created with this key"  example(5f1c6a8e-4a4e-4c55-9e3e-0f5b8c1f2d11)
// @Param       category         formData  string  false  "Idea category (default random)"  example(AI)
// @Param       keyword          formData  string  false  "Alias of category"
//
// @Success     201  {object}  domain.Idea
// @Success     200  {object}  domain.Idea  "Replayed idea"
// @Header      200  {string}  Idempotency-Replayed  "true when replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Storage failure"
// @Router      /generate [post]
func (h *Handlers) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	category := req.category()
	if utf8.RuneCountInString(category) > maxCategoryRunes {
		fail(c, http.StatusBadRequest, ErrCodeCategoryTooLong,
			"category must be at most "+itoa(maxCategoryRunes)+" characters")
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	res, err := h.ideaSvc.Generate(c.Request.Context(), category, key)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not save the idea")
		return
	}

	if res.GenErr != nil {
		middleware.LoggerFrom(c).Warn().
			Err(res.GenErr).
			Str("category", category).
			Uint("idea_id", res.Idea.ID).
			Msg("idea generation failed, stored placeholder")
	}

	status := http.StatusCreated
	if res.Replayed {
		c.Header(HeaderIdempotencyReplayed, "true")
		status = http.StatusOK
	}
	if !wantsJSON(c) {
		status = http.StatusOK
	}
	render(c, status, "idea.html", res.Idea, res.Idea)
}

// VoteUp godoc
// @ID          voteUp
// @Summary     Vote an idea up
// @Tags        Ideas
// @Produce     html
// @Produce     json
// @Param       id   path      int  true  "Idea ID"  minimum(1)
// @Success     200  {object}  handlers.VoteResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Storage failure"
// @Router      /vote-up/{id} [post]
func (h *Handlers) VoteUp(c *gin.Context) { h.vote(c, "up") }

// VoteDown godoc
// @ID          voteDown
// @Summary     Vote an idea down
// @Tags        Ideas
// @Produce     html
// @Produce     json
// @Param       id   path      int  true  "Idea ID"  minimum(1)
// @Success     200  {object}  handlers.VoteResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     404  {object}  handlers.ErrorResponse  "Idea not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Storage failure"
// @Router      /vote-down/{id} [post]
func (h *Handlers) VoteDown(c *gin.Context) { h.vote(c, "down") }

func (h *Handlers) vote(c *gin.Context, direction string) {
	id, ok := ideaID(c)
	if !ok {
		return
	}

	votes, err := h.ideaSvc.Vote(c.Request.Context(), id, direction)
	switch {
	case errors.Is(err, services.ErrIdeaNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "idea not found")
		return
	case err != nil:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeVoteFailed, "could not record the vote")
		return
	}

	resp := VoteResponse{Votes: votes, ID: id}
	render(c, http.StatusOK, "votes.html", resp, resp)
}

// ListIdeas godoc
// @ID          listIdeas
// @Summary     Leaderboard (paginated)
// @Description Returns ideas ordered by votes (ties by id). Supports weak ETag via If-None-Match and may return 304.
// @Tags        Ideas
// @Produce     html
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"ideas:json:3:1700000000000000000:1:20\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListIdeasResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /ideas [get]
func (h *Handlers) ListIdeas(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	format := "html"
	if wantsJSON(c) {
		format = "json"
	}
	c.Header("Vary", "Accept")

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.ideaSvc.(*services.IdeaService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.IdeasStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"ideas:%s:%d:%d:%d:%d"`, format, count, ts, page, pageSize)
			c.Header("ETag", etag)
			if etagMatches(c, etag) {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.ideaSvc.Leaderboard(ctx, page, pageSize)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not load the leaderboard")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	pg := Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
	render(c, http.StatusOK, "ideas.html",
		leaderboardPage{Title: "Leaderboard", Ideas: items, Pagination: pg, Start: (page-1)*pageSize + 1},
		ListIdeasResponse{Ideas: items, Pagination: pg},
	)
}
