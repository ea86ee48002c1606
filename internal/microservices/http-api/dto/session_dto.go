package dto

import (
	"time"

	"popcult/internal/microservices/http-api/models"
)

// CreateSessionRequest: payload for opening a new matching session.
// All fields are optional; filters only bound the candidate pool.
type CreateSessionRequest struct {
	Name           string  `json:"name" binding:"max=100"`
	SelectedGenres []int64 `json:"selected_genres"`
	Theme          string  `json:"theme" binding:"max=100"`
	ReleaseYearMin *int    `json:"release_year_min"`
	ReleaseYearMax *int    `json:"release_year_max"`
	MaxRuntime     *int    `json:"max_runtime"`
}

// CloseSessionRequest: payload for finishing a session
type CloseSessionRequest struct {
	Outcome        string  `json:"outcome" binding:"required,oneof=completed cancelled"`
	MatchedMovieID *string `json:"matched_movie_id"`
}

// SessionResponse mirrors the session row for API consumers
type SessionResponse struct {
	ID               string     `json:"id"`
	CreatorID        string     `json:"creator_id"`
	CreatorName      string     `json:"creator_name,omitempty"`
	Name             string     `json:"name,omitempty"`
	SelectedGenres   []int64    `json:"selected_genres"`
	Theme            string     `json:"theme,omitempty"`
	ReleaseYearMin   *int       `json:"release_year_min,omitempty"`
	ReleaseYearMax   *int       `json:"release_year_max,omitempty"`
	MaxRuntime       *int       `json:"max_runtime,omitempty"`
	Status           string     `json:"status"`
	MatchedMovieID   *string    `json:"matched_movie_id,omitempty"`
	ParticipantCount int64      `json:"participant_count"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// SessionDetailResponse adds the swipe/result summary used by the detail endpoint
type SessionDetailResponse struct {
	Session      SessionResponse       `json:"session"`
	Participants []ParticipantResponse `json:"participants"`
	SwipesCount  int64                 `json:"swipes_count"`
	Results      []MatchResultResponse `json:"results"`
}

// ParticipantResponse: one session member
type ParticipantResponse struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// FromModelToSessionResponse converts a MatchingSession model to its response DTO
func FromModelToSessionResponse(session *models.MatchingSession, participantCount int64) SessionResponse {
	resp := SessionResponse{
		ID:               session.ID,
		CreatorID:        session.CreatorID,
		CreatorName:      session.Creator.Username,
		Name:             session.Name,
		SelectedGenres:   session.SelectedGenres,
		Theme:            session.Theme,
		ReleaseYearMin:   session.ReleaseYearMin,
		ReleaseYearMax:   session.ReleaseYearMax,
		MaxRuntime:       session.MaxRuntime,
		Status:           session.Status,
		MatchedMovieID:   session.MatchedMovieID,
		ParticipantCount: participantCount,
		CreatedAt:        session.CreatedAt,
		StartedAt:        session.StartedAt,
		CompletedAt:      session.CompletedAt,
	}
	if resp.SelectedGenres == nil {
		resp.SelectedGenres = []int64{}
	}
	return resp
}

// FromModelToParticipantResponses converts membership rows to their response DTOs
func FromModelToParticipantResponses(participants []models.SessionParticipant) []ParticipantResponse {
	responses := make([]ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		responses = append(responses, ParticipantResponse{
			UserID:   p.UserID,
			Username: p.User.Username,
			JoinedAt: p.JoinedAt,
		})
	}
	return responses
}
