package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session lifecycle. Transitions are one-directional:
// waiting -> active -> completed, or -> cancelled from waiting/active.
const (
	SessionStatusWaiting   = "waiting"
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// SessionStatusOpen reports whether a session in the given status still accepts swipes and joins.
func SessionStatusOpen(status string) bool {
	return status == SessionStatusWaiting || status == SessionStatusActive
}

type MatchingSession struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	CreatorID string `gorm:"type:uuid;not null;index" json:"creator_id"`

	// Session name, e.g. "Friday movie night"
	Name string `json:"name,omitempty"`

	// Filters bounding the candidate pool (not enforced by the matching engine itself)
	SelectedGenres []int64 `gorm:"serializer:json" json:"selected_genres"`
	Theme          string  `json:"theme,omitempty"`
	ReleaseYearMin *int    `json:"release_year_min,omitempty"`
	ReleaseYearMax *int    `json:"release_year_max,omitempty"`
	MaxRuntime     *int    `json:"max_runtime,omitempty"`

	Status string `gorm:"default:'waiting';not null;index" json:"status"`

	// Movie the group settled on, set when the session completes
	MatchedMovieID *string `gorm:"type:uuid" json:"matched_movie_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Associations
	Creator      User   `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	MatchedMovie *Movie `gorm:"foreignKey:MatchedMovieID" json:"matched_movie,omitempty"`
}

func (session *MatchingSession) BeforeCreate(tx *gorm.DB) (err error) {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	return
}

func (MatchingSession) TableName() string {
	return "matching_sessions"
}

// SessionParticipant is the membership row for a matching session. Membership
// grows monotonically while the session is open; rows are never removed
// individually, only cascade-deleted with the session.
type SessionParticipant struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:uuid;not null;uniqueIndex:idx_session_participants_session_user" json:"session_id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_session_participants_session_user" json:"user_id"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Associations
	Session MatchingSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;" json:"-"`
	User    User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
}

func (SessionParticipant) TableName() string {
	return "session_participants"
}
