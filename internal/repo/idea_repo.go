// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Idea model:
// the idea store and the vote adjuster.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: persistence and query composition only.
//
// Error semantics:
//   - When an idea is not found, functions return ErrNotFound.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated. Nothing is retried.
//
// Functions:
//
//   - CreateIdea(ctx, db, category, text) -> *domain.Idea, error
//     Inserts a row with votes = 0; the store assigns the id.
//
//   - AdjustVote(ctx, db, id, delta) -> (int, error)
//     Atomically adds delta to votes and returns the new count.
//
//   - GetIdea(ctx, db, id) -> *domain.Idea, error
//
//   - CountIdeas(ctx, db) -> (int64, error)
//
//   - ListIdeasPage(ctx, db, offset, limit) -> []domain.Idea, error
//     Leaderboard order: votes DESC, id ASC.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-idea-board/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateIdea inserts a new idea with a zero vote count. Identity assignment
// and insertion are a single statement, so a failed call leaves no row.
func CreateIdea(ctx context.Context, db *gorm.DB, category, text string) (*domain.Idea, error) {
	now := time.Now().UTC()
	idea := &domain.Idea{
		Category:  category,
		Text:      text,
		Votes:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(idea).Error; err != nil {
		return nil, err
	}
	return idea, nil
}

// AdjustVote adds delta to the vote count of idea id and returns the new
// count. The increment is a single UPDATE (votes = votes + delta), and the
// read-back happens in the same transaction, so concurrent voters never
// lose an update. If no row matches id it returns ErrNotFound and nothing
// is written.
func AdjustVote(ctx context.Context, db *gorm.DB, id uint, delta int) (int, error) {
	var votes int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Idea{}).
			Where("id = ?", id).
			UpdateColumns(map[string]any{
				"votes":      gorm.Expr("votes + ?", delta),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&domain.Idea{}).
			Select("votes").
			Where("id = ?", id).
			Scan(&votes).Error
	})
	if err != nil {
		return 0, err
	}
	return votes, nil
}

// GetIdea fetches a single idea by id, or ErrNotFound if missing.
func GetIdea(ctx context.Context, db *gorm.DB, id uint) (*domain.Idea, error) {
	var idea domain.Idea
	err := db.WithContext(ctx).Where("id = ?", id).First(&idea).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// CountIdeas returns the total number of stored ideas.
func CountIdeas(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Idea{}).Count(&total).Error
	return total, err
}

// ListIdeasPage returns a page of ideas ordered by votes (highest first),
// breaking ties by id so pagination is deterministic.
func ListIdeasPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Idea, error) {
	var out []domain.Idea
	err := db.WithContext(ctx).
		Order("votes DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
