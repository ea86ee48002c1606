package repository

import (
	"context"
	"errors"
	"time"

	"popcult/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	CreateWithCreator(ctx context.Context, session *models.MatchingSession) error
	GetByID(ctx context.Context, id string) (*models.MatchingSession, error)
	Exists(ctx context.Context, id string) (bool, error)
	Join(ctx context.Context, sessionID, userID string) error
	IsParticipant(ctx context.Context, sessionID, userID string) (bool, error)
	CountParticipants(ctx context.Context, sessionID string) (int64, error)
	ListParticipants(ctx context.Context, sessionID string) ([]models.SessionParticipant, error)
	Close(ctx context.Context, sessionID, status string, matchedMovieID *string) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// CreateWithCreator inserts the session row and the creator's membership row
// in one transaction, so a session can never exist without a participant.
func (r *sessionRepository) CreateWithCreator(ctx context.Context, session *models.MatchingSession) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		participant := &models.SessionParticipant{
			SessionID: session.ID,
			UserID:    session.CreatorID,
		}
		return tx.Create(participant).Error
	})
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.MatchingSession, error) {
	var session models.MatchingSession
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("MatchedMovie").
		First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MatchingSession{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// Join adds the user to an open session. The transaction takes the same row
// lock as Record, so a close committing concurrently cannot slip between the
// status check and the membership insert. Joining twice leaves a single row
// and returns no error; the first join beyond the creator flips a waiting
// session to active.
func (r *sessionRepository) Join(ctx context.Context, sessionID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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

		participant := &models.SessionParticipant{
			SessionID: sessionID,
			UserID:    userID,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(participant).Error; err != nil {
			return err
		}

		if session.Status != models.SessionStatusWaiting {
			return nil
		}
		var count int64
		if err := tx.Model(&models.SessionParticipant{}).
			Where("session_id = ?", sessionID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 1 {
			now := time.Now().UTC()
			if err := tx.Model(&models.MatchingSession{}).
				Where("id = ? AND status = ?", sessionID, models.SessionStatusWaiting).
				Updates(map[string]any{
					"status":     models.SessionStatusActive,
					"started_at": now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sessionRepository) IsParticipant(ctx context.Context, sessionID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SessionParticipant{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *sessionRepository) CountParticipants(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SessionParticipant{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (r *sessionRepository) ListParticipants(ctx context.Context, sessionID string) ([]models.SessionParticipant, error) {
	var participants []models.SessionParticipant
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Preload("User").
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// Close finishes a session as completed or cancelled. Closing is irreversible:
// the WHERE clause only matches sessions that are still open, so a second
// close attempt reports ErrSessionClosed.
func (r *sessionRepository) Close(ctx context.Context, sessionID, status string, matchedMovieID *string) error {
	if status != models.SessionStatusCompleted && status != models.SessionStatusCancelled {
		return ErrInvalidOutcome
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":       status,
		"completed_at": now,
	}
	if matchedMovieID != nil {
		updates["matched_movie_id"] = *matchedMovieID
	}

	result := r.db.WithContext(ctx).
		Model(&models.MatchingSession{}).
		Where("id = ? AND status IN ?", sessionID, []string{models.SessionStatusWaiting, models.SessionStatusActive}).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		exists, err := r.Exists(ctx, sessionID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrSessionNotFound
		}
		return ErrSessionClosed
	}
	return nil
}
