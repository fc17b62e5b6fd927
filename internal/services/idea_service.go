// Package services – IdeaService
//
// This file implements IdeaService, which owns the idea board workflows:
// generating an idea through the text-generation client and persisting it,
// adjusting votes, and listing the leaderboard.
//
// Generation failures never fail the request: the fixed sentinel text is
// stored instead and the generation error is handed back for logging.
// Storage failures are returned as-is and are never retried.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-idea-board/internal/domain"
	"github.com/tbourn/go-idea-board/internal/generation"
	"github.com/tbourn/go-idea-board/internal/repo"
)

// IdeaRepo defines the repository contract required by IdeaService.
type IdeaRepo interface {
	// CreateIdea inserts a new idea with zero votes.
	CreateIdea(ctx context.Context, db *gorm.DB, category, text string) (*domain.Idea, error)

	// AdjustVote atomically adds delta to an idea's votes and returns the new count.
	AdjustVote(ctx context.Context, db *gorm.DB, id uint, delta int) (int, error)

	// GetIdea fetches a single idea.
	GetIdea(ctx context.Context, db *gorm.DB, id uint) (*domain.Idea, error)

	// CountIdeas returns the total number of ideas for pagination.
	CountIdeas(ctx context.Context, db *gorm.DB) (int64, error)

	// ListIdeasPage returns a leaderboard page.
	ListIdeasPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Idea, error)

	// GetIdempotency returns a live record for key.
	GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error)

	// CreateIdempotency remembers which idea a key produced.
	CreateIdempotency(ctx context.Context, db *gorm.DB, key string, ideaID uint, status int, now time.Time, ttl time.Duration) (*domain.Idempotency, error)
}

// IdeaGenerator produces idea text for a category.
type IdeaGenerator interface {
	Idea(ctx context.Context, category string) generation.Outcome[string]
}

// GeneratedIdea is the result of IdeaService.Generate.
type GeneratedIdea struct {
	Idea *domain.Idea

	// GenErr is the generation failure that caused the sentinel text to be
	// stored, if any. It is informational only.
	GenErr error

	// Replayed is true when the idea was returned from an earlier request
	// carrying the same idempotency key.
	Replayed bool
}

// IdeaService coordinates idea generation, persistence and voting.
type IdeaService struct {
	DB   *gorm.DB
	Repo IdeaRepo
	Gen  IdeaGenerator

	// IdempotencyTTL is how long an idempotency key replays its idea.
	IdempotencyTTL time.Duration

	// MaxPageSize caps leaderboard page sizes.
	MaxPageSize int

	// Now is the clock used for idempotency expiry; nil means time.Now.
	Now func() time.Time
}

// NewIdeaService constructs an IdeaService with default paging and TTL.
func NewIdeaService(db *gorm.DB, r IdeaRepo, gen IdeaGenerator, ttl time.Duration) *IdeaService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdeaService{
		DB:             db,
		Repo:           r,
		Gen:            gen,
		IdempotencyTTL: ttl,
		MaxPageSize:    100,
	}
}

// Generate creates a new idea for category.
//
// When idemKey is non-empty and a live record exists for it, the original
// idea is returned with Replayed set and nothing is generated or stored.
// Otherwise the generator is called (sentinel text on failure), the idea is
// inserted with zero votes and, if idemKey is set, the key is recorded in the
// same transaction. A concurrent request that recorded the same key first
// wins; this call then replays that request's idea.
func (s *IdeaService) Generate(ctx context.Context, category, idemKey string) (GeneratedIdea, error) {
	tr := otel.Tracer("services/IdeaService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("idea.category", category),
			attribute.Bool("idempotency.key_present", idemKey != ""),
		),
	)
	defer span.End()

	if idemKey != "" {
		if idea, ok, err := s.replay(ctx, idemKey); err != nil {
			return GeneratedIdea{}, err
		} else if ok {
			span.SetAttributes(attribute.Bool("idempotency.replayed", true))
			return GeneratedIdea{Idea: idea, Replayed: true}, nil
		}
	}

	out := s.Gen.Idea(ctx, category)
	text := generation.OrSentinelIdea(out)

	var created *domain.Idea
	errKeyTaken := errors.New("idempotency key taken")
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		idea, err := s.Repo.CreateIdea(ctx, tx, category, text)
		if err != nil {
			return err
		}
		if idemKey != "" {
			_, err := s.Repo.CreateIdempotency(ctx, tx, idemKey, idea.ID, http.StatusCreated, s.now(), s.IdempotencyTTL)
			if errors.Is(err, repo.ErrDuplicate) {
				return errKeyTaken
			}
			if err != nil {
				return err
			}
		}
		created = idea
		return nil
	})
	if errors.Is(err, errKeyTaken) {
		if idea, ok, rerr := s.replay(ctx, idemKey); rerr != nil {
			return GeneratedIdea{}, rerr
		} else if ok {
			return GeneratedIdea{Idea: idea, Replayed: true}, nil
		}
		return GeneratedIdea{}, err
	}
	if err != nil {
		span.RecordError(err)
		return GeneratedIdea{}, err
	}

	span.SetAttributes(attribute.Int64("idea.id", int64(created.ID)))
	return GeneratedIdea{Idea: created, GenErr: out.Err}, nil
}

// replay looks up a live idempotency record and loads its idea.
func (s *IdeaService) replay(ctx context.Context, key string) (*domain.Idea, bool, error) {
	rec, err := s.Repo.GetIdempotency(ctx, s.DB, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	idea, err := s.Repo.GetIdea(ctx, s.DB, rec.IdeaID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return idea, true, nil
}

// Vote applies an up (+1) or down (-1) vote to idea id and returns the new
// count. Unknown ids yield ErrIdeaNotFound and nothing is written.
func (s *IdeaService) Vote(ctx context.Context, id uint, direction string) (int, error) {
	tr := otel.Tracer("services/IdeaService")
	ctx, span := tr.Start(ctx, "Vote",
		trace.WithAttributes(
			attribute.Int64("idea.id", int64(id)),
			attribute.String("vote.direction", direction),
		),
	)
	defer span.End()

	var delta int
	switch direction {
	case "up":
		delta = +1
	case "down":
		delta = -1
	default:
		return 0, ErrInvalidDirection
	}

	votes, err := s.Repo.AdjustVote(ctx, s.DB, id, delta)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, ErrIdeaNotFound
	}
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return votes, nil
}

// Leaderboard returns a page of ideas ordered by votes, plus the total count.
// Invalid page values fall back to page 1 and a page size of 20.
func (s *IdeaService) Leaderboard(ctx context.Context, page, pageSize int) ([]domain.Idea, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if s.MaxPageSize > 0 && pageSize > s.MaxPageSize {
		pageSize = s.MaxPageSize
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountIdeas(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Idea{}, 0, nil
	}

	items, err := s.Repo.ListIdeasPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

func (s *IdeaService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
