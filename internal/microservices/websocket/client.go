package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"popcult/internal/microservices/http-api/service"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const ( // ping pong (2-way heartbeat) to keep connection alive
	WriteWait      = 10 * time.Second    // max time to write a message to the peer
	PongWait       = 60 * time.Second    // no pong within this window = dead connection
	PingPeriod     = (PongWait * 9) / 10 // ping before the pong window expires
	MaxMessageSize = 512                 // maximum message size allowed from peer

	// Inbound swipe budget per connection; bursts above this get an error
	// frame instead of a ledger write.
	swipesPerSecond = 5
	swipeBurst      = 10

	// Upper bound on one swipe transaction triggered over the channel
	swipeTimeout = 10 * time.Second
)

// Client is one participant's connection to one session's broadcast group
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	userID    string
	send      chan []byte

	// sendMu guards send against a concurrent closeSend: the hub's drop
	// path and this connection's ack/error frames race otherwise.
	sendMu     sync.Mutex
	sendClosed bool

	// ctx ends with the connection so in-flight swipes don't outlive it
	ctx    context.Context
	cancel context.CancelFunc

	matching service.MatchingService
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID, userID string, matching service.MatchingService, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:       hub,
		conn:      conn,
		sessionID: sessionID,
		userID:    userID,
		send:      make(chan []byte, 256),
		ctx:       ctx,
		cancel:    cancel,
		matching:  matching,
		limiter:   rate.NewLimiter(rate.Limit(swipesPerSecond), swipeBurst),
		logger:    logger,
	}
}

// closeSend closes the outbound channel exactly once, regardless of whether
// the hub or a slow-buffer drop gets there first, and cancels the
// connection's context.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
	c.cancel()
}

// trySend queues a frame unless the buffer is full or the channel is already
// closed. Reports whether the frame was queued.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// sendLocal queues a frame for this connection only (ack and error frames
// never go through the broadcast group). A full buffer or an already-dropped
// connection just loses the frame; the write pump's deadline reaps the rest.
func (c *Client) sendLocal(data []byte) {
	c.trySend(data)
}

// ReadPump pumps inbound frames from the connection into the matching service.
// It also services ping/pong and detects disconnects; on return the client is
// unregistered and its recorded swipes survive.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error",
					"session_id", c.sessionID, "user_id", c.userID, "error", err)
			}
			break
		}
		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(data []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.sendLocal(NewErrorFrame(ErrCodeInvalidFrame, "malformed frame").ToJSON())
		return
	}

	switch frame.Action {
	case ActionSwipe:
		c.handleSwipe(frame)
	default:
		c.sendLocal(NewErrorFrame(ErrCodeInvalidFrame, "unknown action").ToJSON())
	}
}

func (c *Client) handleSwipe(frame InboundFrame) {
	if frame.MovieID == "" || frame.Liked == nil {
		c.sendLocal(NewErrorFrame(ErrCodeInvalidFrame, "movie_id and liked are required").ToJSON())
		return
	}
	if !c.limiter.Allow() {
		c.sendLocal(NewErrorFrame(ErrCodeRateLimited, "too many swipes").ToJSON())
		return
	}

	// The service commits the swipe and publishes the fresh ranking to the
	// whole group (this connection included), so nothing is echoed here on
	// success.
	ctx, cancel := context.WithTimeout(c.ctx, swipeTimeout)
	defer cancel()
	_, err := c.matching.Swipe(ctx, c.sessionID, c.userID, frame.MovieID, *frame.Liked)
	if err != nil {
		c.sendLocal(errorFrameFor(err).ToJSON())
	}
}

// errorFrameFor maps a service error onto the channel's error frame contract
func errorFrameFor(err error) ErrorFrame {
	switch {
	case errors.Is(err, service.ErrNotAParticipant):
		return NewErrorFrame(ErrCodeNotAParticipant, "join the session before swiping")
	case errors.Is(err, service.ErrSessionClosed):
		return NewErrorFrame(ErrCodeSessionClosed, "session is completed or cancelled")
	case errors.Is(err, service.ErrMovieNotFound):
		return NewErrorFrame(ErrCodeMovieNotFound, "movie not found")
	default:
		return NewErrorFrame(ErrCodeInternal, "swipe failed")
	}
}

// WritePump pumps frames from the hub to the connection and keeps the
// heartbeat going. One goroutine per connection owns all writes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Each payload goes out as its own frame so clients can parse
			// every JSON object individually.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.send)
			for i := 0; i < n; i++ {
				c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
