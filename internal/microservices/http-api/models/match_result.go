package models

import "time"

// MatchResult is a materialized view over the swipes table: one row per
// (session, movie) that currently has at least one like. It is fully rebuilt
// on every recompute and is always safe to drop.
type MatchResult struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_match_results_session_movie" json:"session_id"`
	MovieID         string    `gorm:"type:uuid;not null;uniqueIndex:idx_match_results_session_movie" json:"movie_id"`
	LikesCount      int       `gorm:"not null" json:"likes_count"`
	MatchPercentage float64   `gorm:"not null" json:"match_percentage"`
	MatchedAt       time.Time `gorm:"autoCreateTime" json:"matched_at"`

	// Associations
	Session MatchingSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;" json:"-"`
	Movie   Movie           `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE;" json:"movie,omitempty"`
}

func (MatchResult) TableName() string {
	return "match_results"
}
