package models

import "time"

// Swipe is one participant's current preference for one movie within one
// session. The (session, user, movie) key is unique: re-swiping overwrites the
// existing row in place instead of creating a second record.
type Swipe struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:uuid;not null;uniqueIndex:idx_swipes_session_user_movie;index:idx_swipes_session_movie" json:"session_id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_swipes_session_user_movie" json:"user_id"`
	MovieID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_swipes_session_user_movie;index:idx_swipes_session_movie" json:"movie_id"`
	Liked     bool      `gorm:"not null" json:"liked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Session MatchingSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;" json:"-"`
	User    User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
	Movie   Movie           `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE;" json:"movie,omitempty"`
}

func (Swipe) TableName() string {
	return "swipes"
}
