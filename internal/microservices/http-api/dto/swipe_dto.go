package dto

import (
	"time"

	"popcult/internal/microservices/http-api/models"
)

// SwipeRequest: payload for recording a like/dislike on a candidate movie
type SwipeRequest struct {
	MovieID string `json:"movie_id" binding:"required,uuid"`
	Liked   *bool  `json:"liked" binding:"required"`
}

// SwipeResponse: the stored preference for one (session, user, movie) key
type SwipeResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	MovieID   string    `json:"movie_id"`
	Liked     bool      `json:"liked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MatchResultResponse: one ranked aggregate row, enriched with movie metadata
type MatchResultResponse struct {
	MovieID         string    `json:"movie_id"`
	Title           string    `json:"title"`
	PosterPath      string    `json:"poster_path,omitempty"`
	LikesCount      int       `json:"likes_count"`
	MatchPercentage float64   `json:"match_percentage"`
	MatchedAt       time.Time `json:"matched_at"`
}

// SwipeResultResponse: REST swipe response combining the swipe and the fresh ranking
type SwipeResultResponse struct {
	Swipe   SwipeResponse         `json:"swipe"`
	Results []MatchResultResponse `json:"results"`
}

// FromModelToSwipeResponse converts a Swipe model to its response DTO
func FromModelToSwipeResponse(swipe *models.Swipe) SwipeResponse {
	return SwipeResponse{
		SessionID: swipe.SessionID,
		UserID:    swipe.UserID,
		MovieID:   swipe.MovieID,
		Liked:     swipe.Liked,
		CreatedAt: swipe.CreatedAt,
		UpdatedAt: swipe.UpdatedAt,
	}
}

// FromModelToMatchResultResponses converts ranked MatchResult models, keeping order
func FromModelToMatchResultResponses(results []models.MatchResult) []MatchResultResponse {
	responses := make([]MatchResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, MatchResultResponse{
			MovieID:         result.MovieID,
			Title:           result.Movie.Title,
			PosterPath:      result.Movie.PosterPath,
			LikesCount:      result.LikesCount,
			MatchPercentage: result.MatchPercentage,
			MatchedAt:       result.MatchedAt,
		})
	}
	return responses
}
