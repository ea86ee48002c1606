package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"popcult/internal/microservices/http-api/models"
	"popcult/internal/microservices/http-api/repository"

	"github.com/redis/go-redis/v9"
)

// MovieService is the Candidate Catalog lookup consumed by the matching core.
// Reads go through a Redis cache in front of the movies table; the TMDB sync
// job that fills the table runs outside this server.
type MovieService interface {
	GetMovie(ctx context.Context, id string) (*models.Movie, error)
}

type movieService struct {
	movieRepo repository.MovieRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    *slog.Logger
}

func NewMovieService(movieRepo repository.MovieRepository, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) MovieService {
	return &movieService{
		movieRepo: movieRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func (s *movieService) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	key := movieCacheKey(id)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var movie models.Movie
			if unmarshalErr := json.Unmarshal([]byte(cached), &movie); unmarshalErr == nil {
				return &movie, nil
			}
			// Corrupt cache entry; fall through to the database.
			s.cache.Del(ctx, key)
		}
	}

	movie, err := s.movieRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, marshalErr := json.Marshal(movie); marshalErr == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache movie", "movie_id", id, "error", err)
			}
		}
	}

	return movie, nil
}

func movieCacheKey(id string) string {
	return fmt.Sprintf("movie:%s", id)
}
