package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-idea-board/internal/domain"
	"github.com/tbourn/go-idea-board/internal/generation"
	"github.com/tbourn/go-idea-board/internal/http/middleware"
	"github.com/tbourn/go-idea-board/internal/repo"
	"github.com/tbourn/go-idea-board/internal/services"
	"github.com/tbourn/go-idea-board/internal/web"
)

const formCT = "application/x-www-form-urlencoded"

// newEngine mounts h on a bare engine with the real templates.
func newEngine(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(web.MustTemplates())
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.GET("/", h.Home)
	r.POST("/generate", h.Generate)
	r.POST("/vote-up/:id", h.VoteUp)
	r.POST("/vote-down/:id", h.VoteDown)
	r.GET("/ideas", h.ListIdeas)
	r.GET("/flashcards", h.Flashcards)
	r.GET("/flashcard", h.Flashcard)
	r.GET("/story", h.Story)
	r.POST("/add-sentence", h.AddSentence)
	return r
}

// do sends a request; body is sent as a form unless a Content-Type header
// says otherwise.
func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", formCT)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var jsonAccept = map[string]string{"Accept": "application/json"}

// ---------- service stubs ----------

type stubIdeas struct {
	mu          sync.Mutex
	gotCategory string
	gotKey      string
	genCalls    int

	gen   func(category, key string) (services.GeneratedIdea, error)
	vote  func(id uint, direction string) (int, error)
	board func(page, pageSize int) ([]domain.Idea, int64, error)
}

func (s *stubIdeas) Generate(_ context.Context, category, key string) (services.GeneratedIdea, error) {
	s.mu.Lock()
	s.gotCategory, s.gotKey = category, key
	s.genCalls++
	s.mu.Unlock()
	return s.gen(category, key)
}

func (s *stubIdeas) Vote(_ context.Context, id uint, direction string) (int, error) {
	return s.vote(id, direction)
}

func (s *stubIdeas) Leaderboard(_ context.Context, page, pageSize int) ([]domain.Idea, int64, error) {
	return s.board(page, pageSize)
}

type stubCards struct {
	card domain.Flashcard
	err  error
}

func (s stubCards) Next(context.Context) (domain.Flashcard, error) { return s.card, s.err }

// ---------- real stack helpers ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// sqlIdeaRepo proxies the repo package functions.
type sqlIdeaRepo struct{}

func (sqlIdeaRepo) CreateIdea(ctx context.Context, db *gorm.DB, category, text string) (*domain.Idea, error) {
	return repo.CreateIdea(ctx, db, category, text)
}
func (sqlIdeaRepo) AdjustVote(ctx context.Context, db *gorm.DB, id uint, delta int) (int, error) {
	return repo.AdjustVote(ctx, db, id, delta)
}
func (sqlIdeaRepo) GetIdea(ctx context.Context, db *gorm.DB, id uint) (*domain.Idea, error) {
	return repo.GetIdea(ctx, db, id)
}
func (sqlIdeaRepo) CountIdeas(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountIdeas(ctx, db)
}
func (sqlIdeaRepo) ListIdeasPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Idea, error) {
	return repo.ListIdeasPage(ctx, db, offset, limit)
}
func (sqlIdeaRepo) GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, key, now)
}
func (sqlIdeaRepo) CreateIdempotency(ctx context.Context, db *gorm.DB, key string, ideaID uint, status int, now time.Time, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, key, ideaID, status, now, ttl)
}

// textGen always answers with text, or fails with err.
type textGen struct {
	text string
	err  error
}

func (g textGen) Idea(context.Context, string) generation.Outcome[string] {
	return generation.Outcome[string]{Value: g.text, Err: g.err}
}

func newRealIdeas(t *testing.T, gen services.IdeaGenerator) (*services.IdeaService, *gorm.DB) {
	t.Helper()
	db := newHandlerDB(t)
	return services.NewIdeaService(db, sqlIdeaRepo{}, gen, time.Hour), db
}
