package service

import (
	"context"
	"testing"
	"time"

	"popcult/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetMovie_CacheMissFallsThrough(t *testing.T) {
	movieRepo := new(MockMovieRepository)
	movieService := NewMovieService(movieRepo, nil, time.Minute, testLogger())

	movieRepo.On("GetByID", mock.Anything, "movie-1").
		Return(&models.Movie{ID: "movie-1", Title: "Heat"}, nil)

	movie, err := movieService.GetMovie(context.Background(), "movie-1")

	assert.NoError(t, err)
	assert.Equal(t, "Heat", movie.Title)
	movieRepo.AssertExpectations(t)
}

func TestGetMovie_NotFound(t *testing.T) {
	movieRepo := new(MockMovieRepository)
	movieService := NewMovieService(movieRepo, nil, time.Minute, testLogger())

	movieRepo.On("GetByID", mock.Anything, "nope").Return(nil, ErrMovieNotFound)

	_, err := movieService.GetMovie(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMovieCacheKey(t *testing.T) {
	assert.Equal(t, "movie:movie-1", movieCacheKey("movie-1"))
}
