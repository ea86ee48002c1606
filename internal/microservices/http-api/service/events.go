package service

import (
	"context"

	"popcult/internal/microservices/http-api/dto"
)

// SwipeEvent identifies the individual swipe that triggered a results update.
type SwipeEvent struct {
	UserID  string `json:"user_id"`
	MovieID string `json:"movie_id"`
	Liked   bool   `json:"liked"`
}

// ResultsUpdateEvent is fanned out to every connection subscribed to a
// session after a committed swipe. All participants, including the sender,
// reconcile from this broadcast.
type ResultsUpdateEvent struct {
	Results []dto.MatchResultResponse `json:"results"`
	Swipe   SwipeEvent                `json:"swipe"`
}

// ResultsPublisher fans a results update out to every subscriber of the
// session's broadcast group, across all server processes. Delivery is
// best-effort; a publish failure never fails the triggering swipe.
type ResultsPublisher interface {
	PublishResults(ctx context.Context, sessionID string, event ResultsUpdateEvent) error
}
