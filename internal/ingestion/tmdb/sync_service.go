package tmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"popcult/internal/microservices/http-api/repository"
)

// SyncConfig tunes one catalog sync run
type SyncConfig struct {
	// Number of discover pages to walk (20 movies per page)
	PageCount int

	// Rows synced more recently than this are skipped
	FreshFor time.Duration
}

// SyncService walks TMDB's popular-movie listing and upserts the catalog
// rows the matching engine swipes over.
type SyncService struct {
	client *Client
	movies repository.MovieRepository
	cfg    SyncConfig
	logger *slog.Logger
}

func NewSyncService(client *Client, movies repository.MovieRepository, cfg SyncConfig, logger *slog.Logger) *SyncService {
	if cfg.PageCount < 1 {
		cfg.PageCount = 5
	}
	if cfg.FreshFor <= 0 {
		cfg.FreshFor = 24 * time.Hour
	}
	return &SyncService{
		client: client,
		movies: movies,
		cfg:    cfg,
		logger: logger,
	}
}

// SyncPopular runs one full pass. A failed movie is logged and skipped so a
// single bad record never aborts the run.
func (s *SyncService) SyncPopular(ctx context.Context) error {
	synced, skipped := 0, 0

	for page := 1; page <= s.cfg.PageCount; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		listing, err := s.client.DiscoverMovies(ctx, page)
		if err != nil {
			return fmt.Errorf("discover page %d: %w", page, err)
		}

		for _, summary := range listing.Results {
			fresh, err := s.syncMovie(ctx, summary.ID)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				s.logger.Warn("failed to sync movie",
					"tmdb_id", summary.ID, "title", summary.Title, "error", err)
				continue
			}
			if fresh {
				skipped++
			} else {
				synced++
			}
		}

		if page >= listing.TotalPages {
			break
		}
	}

	s.logger.Info("catalog sync finished", "synced", synced, "skipped_fresh", skipped)
	return nil
}

// syncMovie upserts one movie unless its stored row is still fresh. Reports
// whether the row was skipped as fresh.
func (s *SyncService) syncMovie(ctx context.Context, tmdbID int64) (bool, error) {
	existing, err := s.movies.GetByTMDBID(ctx, tmdbID)
	if err == nil && time.Since(existing.LastSynced) < s.cfg.FreshFor {
		return true, nil
	}
	if err != nil && !errors.Is(err, repository.ErrMovieNotFound) {
		return false, err
	}

	details, err := s.client.GetMovieDetails(ctx, tmdbID)
	if err != nil {
		return false, err
	}

	return false, s.movies.Upsert(ctx, details.ToModel())
}
