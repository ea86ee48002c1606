package repository

import (
	"context"
	"errors"
	"fmt"

	"popcult/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovieFilters bounds a candidate pool. Zero values mean "no bound".
type MovieFilters struct {
	Genres         []int64
	ReleaseYearMin *int
	ReleaseYearMax *int
	MaxRuntime     *int
}

type MovieRepository interface {
	GetByID(ctx context.Context, id string) (*models.Movie, error)
	GetByTMDBID(ctx context.Context, tmdbID int64) (*models.Movie, error)
	Upsert(ctx context.Context, movie *models.Movie) error
	ListByFilters(ctx context.Context, filters MovieFilters, limit int) ([]models.Movie, error)
}

type movieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) MovieRepository {
	return &movieRepository{db: db}
}

func (r *movieRepository) GetByID(ctx context.Context, id string) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.WithContext(ctx).First(&movie, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &movie, nil
}

func (r *movieRepository) GetByTMDBID(ctx context.Context, tmdbID int64) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.WithContext(ctx).Where("tmdb_id = ?", tmdbID).First(&movie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &movie, nil
}

// Upsert writes a catalog entry keyed by tmdb_id. The tmdb-sync job is the
// only writer; a re-sync refreshes metadata without touching the row id.
func (r *movieRepository) Upsert(ctx context.Context, movie *models.Movie) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tmdb_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "original_title", "overview", "poster_path", "backdrop_path",
				"release_date", "runtime", "genres", "original_language",
				"tmdb_vote_average", "tmdb_vote_count", "last_synced", "updated_at",
			}),
		}).
		Create(movie).Error
}

// ListByFilters applies the release-date and runtime bounds in SQL and the
// genre intersection in Go, since genres live in a JSON column.
func (r *movieRepository) ListByFilters(ctx context.Context, filters MovieFilters, limit int) ([]models.Movie, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Model(&models.Movie{})
	if filters.ReleaseYearMin != nil {
		query = query.Where("release_date >= ?", fmt.Sprintf("%04d-01-01", *filters.ReleaseYearMin))
	}
	if filters.ReleaseYearMax != nil {
		query = query.Where("release_date <= ?", fmt.Sprintf("%04d-12-31", *filters.ReleaseYearMax))
	}
	if filters.MaxRuntime != nil {
		query = query.Where("runtime IS NOT NULL AND runtime <= ?", *filters.MaxRuntime)
	}

	var movies []models.Movie
	if err := query.Order("tmdb_vote_average DESC").Limit(limit).Find(&movies).Error; err != nil {
		return nil, err
	}

	if len(filters.Genres) == 0 {
		return movies, nil
	}

	wanted := make(map[int64]bool, len(filters.Genres))
	for _, g := range filters.Genres {
		wanted[g] = true
	}
	filtered := make([]models.Movie, 0, len(movies))
	for _, movie := range movies {
		for _, g := range movie.Genres {
			if wanted[g] {
				filtered = append(filtered, movie)
				break
			}
		}
	}
	return filtered, nil
}
