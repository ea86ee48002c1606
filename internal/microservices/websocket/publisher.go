package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"popcult/internal/microservices/http-api/service"

	"github.com/redis/go-redis/v9"
)

// Redis pub/sub carries session events between server processes, so
// participants connected to different processes see the same broadcasts.
// Channel format: matching:events:<session_id>
const eventChannelPrefix = "matching:events:"

func eventChannel(sessionID string) string {
	return eventChannelPrefix + sessionID
}

// sessionFromChannel extracts the session id from a pub/sub channel name.
// Returns "" when the channel does not match the expected format.
func sessionFromChannel(channel string) string {
	if !strings.HasPrefix(channel, eventChannelPrefix) {
		return ""
	}
	sessionID := strings.TrimPrefix(channel, eventChannelPrefix)
	if sessionID == "" || strings.Contains(sessionID, ":") {
		return ""
	}
	return sessionID
}

// RedisPublisher fans results updates out through Redis pub/sub. It
// implements service.ResultsPublisher.
type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(redisClient *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: redisClient}
}

func (p *RedisPublisher) PublishResults(ctx context.Context, sessionID string, event service.ResultsUpdateEvent) error {
	frame := ResultsUpdateFrame{
		Type:               TypeResultsUpdate,
		ResultsUpdateEvent: event,
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal results update: %w", err)
	}

	if err := p.redis.Publish(ctx, eventChannel(sessionID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish results update: %w", err)
	}
	return nil
}
