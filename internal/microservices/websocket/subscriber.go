package websocket

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisSubscriber listens to the session event channels and forwards payloads
// to the local hub. Every server process runs one; together with
// RedisPublisher it makes the broadcast groups distributed.
type RedisSubscriber struct {
	redis  *redis.Client
	hub    *Hub
	logger *slog.Logger
}

func NewRedisSubscriber(redisClient *redis.Client, hub *Hub, logger *slog.Logger) *RedisSubscriber {
	return &RedisSubscriber{
		redis:  redisClient,
		hub:    hub,
		logger: logger,
	}
}

// Start begins listening to Redis pub/sub and blocks until ctx is cancelled.
// The pattern subscription covers every session, so a process receives events
// for sessions it has no local subscribers for and the hub drops them cheaply.
func (s *RedisSubscriber) Start(ctx context.Context) error {
	pubsub := s.redis.PSubscribe(ctx, eventChannelPrefix+"*")
	defer pubsub.Close()

	// Wait for confirmation that the subscription was established.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	s.logger.Info("redis subscriber started", "pattern", eventChannelPrefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("redis subscriber stopping")
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if msg == nil {
				continue
			}

			sessionID := sessionFromChannel(msg.Channel)
			if sessionID == "" {
				s.logger.Warn("invalid event channel", "channel", msg.Channel)
				continue
			}

			s.hub.broadcast <- &SessionMessage{
				SessionID: sessionID,
				Data:      []byte(msg.Payload),
			}
		}
	}
}
