package handler

import (
	"errors"
	"net/http"

	"popcult/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type MovieHandler struct {
	movieService service.MovieService
}

func NewMovieHandler(movieService service.MovieService) *MovieHandler {
	return &MovieHandler{movieService: movieService}
}

// RegisterRoutes registers movie-catalog routes
func (h *MovieHandler) RegisterRoutes(router *gin.RouterGroup) {
	movies := router.Group("/movies")
	{
		movies.GET("/:movie_id", h.Get)
	}
}

// Get returns one cached catalog entry
// GET /api/movies/:movie_id
func (h *MovieHandler) Get(c *gin.Context) {
	movie, err := h.movieService.GetMovie(c.Request.Context(), c.Param("movie_id"))
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, movie)
}
