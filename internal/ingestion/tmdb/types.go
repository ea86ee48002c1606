package tmdb

import (
	"time"

	"popcult/internal/microservices/http-api/models"
)

// DiscoverResponse is one page of /discover/movie results
type DiscoverResponse struct {
	Page         int            `json:"page"`
	Results      []MovieSummary `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// MovieSummary is the listing-level shape; runtime only appears on the
// detail endpoint.
type MovieSummary struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	GenreIDs         []int64 `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
}

// MovieDetails is the /movie/{id} shape
type MovieDetails struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	Runtime          int     `json:"runtime"`
	Genres           []Genre `json:"genres"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ToModel maps the TMDB detail payload onto a catalog row
func (d *MovieDetails) ToModel() *models.Movie {
	movie := &models.Movie{
		TMDBID:           d.ID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		Overview:         d.Overview,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		OriginalLanguage: d.OriginalLanguage,
		TMDBVoteAverage:  d.VoteAverage,
		TMDBVoteCount:    d.VoteCount,
		LastSynced:       time.Now().UTC(),
	}

	if d.ReleaseDate != "" {
		if parsed, err := time.Parse("2006-01-02", d.ReleaseDate); err == nil {
			movie.ReleaseDate = &parsed
		}
	}
	if d.Runtime > 0 {
		runtime := d.Runtime
		movie.Runtime = &runtime
	}

	genres := make([]int64, 0, len(d.Genres))
	for _, genre := range d.Genres {
		genres = append(genres, genre.ID)
	}
	movie.Genres = genres

	return movie
}
