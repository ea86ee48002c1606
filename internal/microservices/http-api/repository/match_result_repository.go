package repository

import (
	"context"

	"popcult/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// MatchResultRepository reads the materialized match results. Writes happen
// only inside SwipeRepository.Record, in the same transaction as the swipe
// that triggered them.
type MatchResultRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.MatchResult, error)
}

type matchResultRepository struct {
	db *gorm.DB
}

func NewMatchResultRepository(db *gorm.DB) MatchResultRepository {
	return &matchResultRepository{db: db}
}

// ListBySession returns the session's results ranked by percentage, then
// likes, then recency, with movie_id as the final key. A recompute stamps all
// rows with one matched_at, so without the id the ordering of ties would be
// up to the planner; with it the ordering is total and repeated reads return
// identical lists.
func (r *matchResultRepository) ListBySession(ctx context.Context, sessionID string) ([]models.MatchResult, error) {
	var results []models.MatchResult
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Preload("Movie").
		Order("match_percentage DESC, likes_count DESC, matched_at DESC, movie_id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
