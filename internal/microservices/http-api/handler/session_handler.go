package handler

import (
	"errors"
	"net/http"
	"strconv"

	"popcult/internal/microservices/http-api/dto"
	"popcult/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	matchingService service.MatchingService
}

func NewSessionHandler(matchingService service.MatchingService) *SessionHandler {
	return &SessionHandler{matchingService: matchingService}
}

// RegisterRoutes registers matching-session routes
// (parent group already runs AuthMiddleware)
func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("/:session_id", h.Detail)
		sessions.POST("/:session_id/join", h.Join)
		sessions.POST("/:session_id/swipe", h.Swipe)
		sessions.POST("/:session_id/close", h.Close)
		sessions.GET("/:session_id/results", h.Results)
		sessions.GET("/:session_id/candidates", h.Candidates)
	}
}

// Create opens a new matching session with the caller as creator
// POST /api/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.matchingService.CreateSession(c.Request.Context(), userID, req)
	if err != nil {
		respondMatchingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Join adds the caller to the session; joining twice is a no-op
// POST /api/sessions/:session_id/join
func (h *SessionHandler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	session, err := h.matchingService.JoinSession(c.Request.Context(), c.Param("session_id"), userID)
	if err != nil {
		respondMatchingError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Swipe records a like/dislike and returns the swipe plus the fresh ranking.
// The same mutate-then-broadcast sequence runs behind the websocket endpoint,
// so REST swipes are visible to live subscribers too.
// POST /api/sessions/:session_id/swipe
func (h *SessionHandler) Swipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.matchingService.Swipe(c.Request.Context(), c.Param("session_id"), userID, req.MovieID, *req.Liked)
	if err != nil {
		respondMatchingError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Close finishes the session as completed or cancelled
// POST /api/sessions/:session_id/close
func (h *SessionHandler) Close(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.matchingService.CloseSession(c.Request.Context(), c.Param("session_id"), userID, req)
	if err != nil {
		respondMatchingError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Results returns the ranked match results for a session
// GET /api/sessions/:session_id/results
func (h *SessionHandler) Results(c *gin.Context) {
	results, err := h.matchingService.Results(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondMatchingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Detail returns the session with its participants and swipe/result summary
// GET /api/sessions/:session_id
func (h *SessionHandler) Detail(c *gin.Context) {
	detail, err := h.matchingService.SessionDetail(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondMatchingError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Candidates returns movies bounded by the session's filters
// GET /api/sessions/:session_id/candidates?limit=50
func (h *SessionHandler) Candidates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	movies, err := h.matchingService.Candidates(c.Request.Context(), c.Param("session_id"), limit)
	if err != nil {
		respondMatchingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": movies})
}

// currentUserID pulls the authenticated user id set by AuthMiddleware
func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", false
	}
	return userID.(string), true
}

// respondMatchingError maps service errors onto the REST error contract
func respondMatchingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrMovieNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotAParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionClosed), errors.Is(err, service.ErrInvalidOutcome):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
