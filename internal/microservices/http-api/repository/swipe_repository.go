package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"popcult/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SwipeRepository interface {
	// Record upserts the (session, user, movie) swipe and rebuilds the
	// session's match results in the same transaction. It returns the stored
	// swipe and the freshly ranked results.
	Record(ctx context.Context, sessionID, userID, movieID string, liked bool) (*models.Swipe, []models.MatchResult, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
}

type swipeRepository struct {
	db *gorm.DB
}

func NewSwipeRepository(db *gorm.DB) SwipeRepository {
	return &swipeRepository{db: db}
}

// Record is the single consistency-sensitive write path. The transaction
// takes a row lock on the session, which serializes all swipes and recomputes
// for one session while leaving other sessions untouched. The lock also makes
// the recompute read its own swipe instead of racing a concurrent writer.
func (r *swipeRepository) Record(ctx context.Context, sessionID, userID, movieID string, liked bool) (*models.Swipe, []models.MatchResult, error) {
	var (
		swipe   models.Swipe
		results []models.MatchResult
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.MatchingSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		if !models.SessionStatusOpen(session.Status) {
			return ErrSessionClosed
		}

		var memberCount int64
		if err := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ? AND user_id = ?", sessionID, userID).
			Count(&memberCount).Error; err != nil {
			return err
		}
		if memberCount == 0 {
			return ErrNotAParticipant
		}

		var movie models.Movie
		if err := tx.First(&movie, "id = ?", movieID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMovieNotFound
			}
			return err
		}

		record := models.Swipe{
			SessionID: sessionID,
			UserID:    userID,
			MovieID:   movieID,
			Liked:     liked,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"liked", "updated_at"}),
		}).Create(&record).Error; err != nil {
			return err
		}

		// Re-read so the caller sees the stored row, not the insert attempt
		// (on conflict the generated ID above is not the existing row's).
		if err := tx.Where("session_id = ? AND user_id = ? AND movie_id = ?", sessionID, userID, movieID).
			First(&swipe).Error; err != nil {
			return err
		}

		ranked, err := recomputeResults(tx, sessionID)
		if err != nil {
			return err
		}
		results = ranked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &swipe, results, nil
}

// recomputeResults rebuilds the match_results rows for a session from the
// swipes table. Full replacement keeps the materialized view exactly in step
// with the ledger; only movies with at least one like get a row.
func recomputeResults(tx *gorm.DB, sessionID string) ([]models.MatchResult, error) {
	var participantCount int64
	if err := tx.Model(&models.SessionParticipant{}).
		Where("session_id = ?", sessionID).
		Count(&participantCount).Error; err != nil {
		return nil, err
	}
	if participantCount < 1 {
		participantCount = 1
	}

	var tallies []struct {
		MovieID    string
		LikesCount int
	}
	if err := tx.Model(&models.Swipe{}).
		Select("movie_id, COUNT(*) AS likes_count").
		Where("session_id = ? AND liked = ?", sessionID, true).
		Group("movie_id").
		Scan(&tallies).Error; err != nil {
		return nil, err
	}

	if err := tx.Where("session_id = ?", sessionID).
		Delete(&models.MatchResult{}).Error; err != nil {
		return nil, err
	}

	if len(tallies) > 0 {
		now := time.Now().UTC()
		rows := make([]models.MatchResult, 0, len(tallies))
		for _, tally := range tallies {
			rows = append(rows, models.MatchResult{
				SessionID:       sessionID,
				MovieID:         tally.MovieID,
				LikesCount:      tally.LikesCount,
				MatchPercentage: MatchPercentage(tally.LikesCount, participantCount),
				MatchedAt:       now,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return nil, err
		}
	}

	var results []models.MatchResult
	err := tx.Where("session_id = ?", sessionID).
		Preload("Movie").
		Order("match_percentage DESC, likes_count DESC, matched_at DESC, movie_id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MatchPercentage computes the share of current participants who liked a
// movie, rounded to two decimals.
func MatchPercentage(likesCount int, participantCount int64) float64 {
	if participantCount < 1 {
		participantCount = 1
	}
	percent := 100 * float64(likesCount) / float64(participantCount)
	return math.Round(percent*100) / 100
}

func (r *swipeRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Swipe{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
