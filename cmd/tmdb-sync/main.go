package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"popcult/database"
	"popcult/internal/config"
	"popcult/internal/ingestion/tmdb"
	"popcult/internal/microservices/http-api/repository"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.TMDBAPIKey == "" {
		fmt.Fprintln(os.Stderr, "TMDB_API_KEY is required for the sync job")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	client := tmdb.NewClient(cfg.TMDBAPIURL, cfg.TMDBAPIKey, logger)
	movieRepo := repository.NewMovieRepository(db)
	syncService := tmdb.NewSyncService(client, movieRepo, tmdb.SyncConfig{
		PageCount: envInt("TMDB_SYNC_PAGES", 5),
		FreshFor:  24 * time.Hour,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received, stopping sync")
		cancel()
	}()

	logger.Info("catalog sync starting", "pages", envInt("TMDB_SYNC_PAGES", 5))
	if err := syncService.SyncPopular(ctx); err != nil {
		logger.Error("catalog sync failed", "error", err)
		os.Exit(1)
	}
}

func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
