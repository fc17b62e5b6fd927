// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository, service, and HTTP layers.
package domain

import "time"

// Idea is a generated hackathon idea and its running vote tally.
//
// Fields:
//   - ID: autoincrement primary key assigned by the store; never reused.
//   - Category: caller-supplied keyword, stored as given.
//   - Text: generated (or placeholder) idea text, stored in column "idea".
//   - Votes: signed net vote count; no floor or ceiling.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Idea struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	Category  string    `json:"category"   gorm:"type:text"`
	Text      string    `json:"idea"       gorm:"column:idea;type:text"`
	Votes     int       `json:"votes"      gorm:"not null;default:0;index:idx_ideas_votes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Idea.
func (Idea) TableName() string { return "ideas" }
