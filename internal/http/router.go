// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, views and route handlers. It centralizes cross-cutting concerns
// such as tracing, correlation IDs, logging/redaction, panic recovery,
// metrics, compression, CORS, security headers, idempotency and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-idea-board/internal/config"
	"github.com/tbourn/go-idea-board/internal/domain"
	"github.com/tbourn/go-idea-board/internal/http/handlers"
	"github.com/tbourn/go-idea-board/internal/http/middleware"
	"github.com/tbourn/go-idea-board/internal/repo"
	"github.com/tbourn/go-idea-board/internal/services"
	"github.com/tbourn/go-idea-board/internal/web"
)

// Generator is the text-generation surface the board needs. *generation.Client
// satisfies it.
type Generator interface {
	services.IdeaGenerator
	services.FlashcardGenerator
}

// ideaRepoShim adapts the repository free functions to the services.IdeaRepo
// interface expected by the IdeaService.
type ideaRepoShim struct{}

func (ideaRepoShim) CreateIdea(ctx context.Context, db *gorm.DB, category, text string) (*domain.Idea, error) {
	return repo.CreateIdea(ctx, db, category, text)
}

func (ideaRepoShim) AdjustVote(ctx context.Context, db *gorm.DB, id uint, delta int) (int, error) {
	return repo.AdjustVote(ctx, db, id, delta)
}

func (ideaRepoShim) GetIdea(ctx context.Context, db *gorm.DB, id uint) (*domain.Idea, error) {
	return repo.GetIdea(ctx, db, id)
}

func (ideaRepoShim) CountIdeas(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountIdeas(ctx, db)
}

func (ideaRepoShim) ListIdeasPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Idea, error) {
	return repo.ListIdeasPage(ctx, db, offset, limit)
}

func (ideaRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, key, now)
}

func (ideaRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, key string, ideaID uint, status int, now time.Time, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, key, ideaID, status, now, ttl)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and returns the story board it created, which lives as long as the
// engine does.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Access log (redacting unless LOG_REDACT=false)
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before the /generate rate limiter to allow bypass on replay)
//  8. gzip, CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gen Generator, cfg config.Config) *services.StoryService {
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(web.MustTemplates())

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access log
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{"X-API-Key"},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery (JSON or error fragment, with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Compression; /metrics negotiates its own encoding
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	allowHeaders := []string{
		"Origin", "Content-Type", "Accept",
		"HX-Request", "HX-Current-URL", "HX-Target", "HX-Trigger",
		middleware.HeaderIdempotencyKey,
	}
	exposeHeaders := []string{
		"X-Request-ID", "Content-Length",
		handlers.HeaderIdempotencyReplayed, "HX-Retarget", "HX-Reswap",
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		NoStore:               false,
		EnablePolicy:          true,
		ContentSecurityPolicy: middleware.DefaultCSP,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Assets and docs
	r.StaticFS("/static", web.Static())
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/generator
	ideaSvc := services.NewIdeaService(db, ideaRepoShim{}, gen, cfg.IdempotencyTTL)
	cardSvc := &services.FlashcardService{Gen: gen}
	story := services.NewStoryService()
	story.MaxRunes = cfg.StoryMaxRunes
	h := handlers.New(ideaSvc, cardSvc, story)

	// Generation costs money; limit it per client.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())

	// Idea board
	r.GET("/", h.Home)
	r.POST("/generate", rl.Handler(), h.Generate)
	r.POST("/vote-up/:id", h.VoteUp)
	r.POST("/vote-down/:id", h.VoteDown)
	r.GET("/ideas", h.ListIdeas)

	// Flashcard battle
	r.GET("/flashcards", h.Flashcards)
	r.GET("/flashcard", h.Flashcard)

	// Crowd story
	r.GET("/story", h.Story)
	r.POST("/add-sentence", h.AddSentence)

	return story
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
