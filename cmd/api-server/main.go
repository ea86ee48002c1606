package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"popcult/database"
	"popcult/internal/config"
	"popcult/internal/microservices/http-api/handler"
	"popcult/internal/microservices/http-api/middleware"
	"popcult/internal/microservices/http-api/repository"
	"popcult/internal/microservices/http-api/service"
	"popcult/internal/microservices/websocket"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Database
	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Redis (broadcast fan-out + movie cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	cancelPing()
	logger.Info("connected to redis", "addr", cfg.RedisAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Broadcast layer: hub fans out locally, redis pub/sub bridges processes
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	subscriber := websocket.NewRedisSubscriber(redisClient, hub, logger)
	go func() {
		if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("redis subscriber exited", "error", err)
		}
	}()

	publisher := websocket.NewRedisPublisher(redisClient)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	movieRepo := repository.NewMovieRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	swipeRepo := repository.NewSwipeRepository(db)
	resultRepo := repository.NewMatchResultRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, cfg)
	movieService := service.NewMovieService(movieRepo, redisClient, time.Duration(cfg.CacheTTL)*time.Second, logger)
	matchingService := service.NewMatchingService(sessionRepo, swipeRepo, resultRepo, movieRepo, publisher, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, int64(cfg.AccessTokenTTL.Seconds()))
	movieHandler := handler.NewMovieHandler(movieService)
	sessionHandler := handler.NewSessionHandler(matchingService)

	// Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler.RegisterRoutes(r.Group("/api/auth"))

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(authService))
	sessionHandler.RegisterRoutes(api)
	movieHandler.RegisterRoutes(api)

	ws := r.Group("/ws")
	ws.Use(middleware.AuthMiddleware(authService))
	ws.GET("/matching/:session_id", websocket.WSHandler(hub, matchingService, logger))

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
		// No read/write timeouts: websocket connections are long-lived and
		// timeouts would kill them mid-session.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("api server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down api server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("api server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
