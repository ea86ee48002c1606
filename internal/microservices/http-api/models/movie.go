package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Movie is a cached copy of a TMDB catalog entry. The sync job that fills this
// table lives outside the API server; the matching engine only reads it.
type Movie struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	TMDBID int64  `gorm:"uniqueIndex;not null" json:"tmdb_id"`

	// Basic info
	Title         string `gorm:"not null" json:"title"`
	OriginalTitle string `json:"original_title,omitempty"`
	Overview      string `json:"overview,omitempty"`
	PosterPath    string `json:"poster_path,omitempty"`
	BackdropPath  string `json:"backdrop_path,omitempty"`

	// Release info
	ReleaseDate *time.Time `gorm:"index" json:"release_date,omitempty"`
	Runtime     *int       `json:"runtime,omitempty"` // in minutes

	// Classification
	Genres           []int64 `gorm:"serializer:json" json:"genres"`
	OriginalLanguage string  `json:"original_language,omitempty"`

	// TMDB ratings snapshot
	TMDBVoteAverage float64 `gorm:"default:0" json:"tmdb_vote_average"`
	TMDBVoteCount   int     `gorm:"default:0" json:"tmdb_vote_count"`

	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	LastSynced time.Time `json:"last_synced"`
}

func (movie *Movie) BeforeCreate(tx *gorm.DB) (err error) {
	if movie.ID == "" {
		movie.ID = uuid.New().String()
	}
	return
}

func (Movie) TableName() string {
	return "movies"
}
