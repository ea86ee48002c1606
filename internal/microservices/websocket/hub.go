package websocket

import (
	"context"
	"log/slog"
	"sync"
)

// SessionMessage is one payload addressed to every connection subscribed to a session
type SessionMessage struct {
	SessionID string
	Data      []byte
}

// Hub maintains the per-session broadcast groups. Each WebSocket connection
// runs in its own goroutines; registration and fan-out go through channels so
// the room map has a single writer loop.
type Hub struct {
	// Map: session id -> subscribed clients
	rooms map[string]map[*Client]bool
	mutex sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *SessionMessage

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *SessionMessage, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("websocket hub started")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("websocket hub stopping")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToSession(message)
		}
	}
}

// registerClient subscribes a client to its session's group. Subscribing an
// already-registered client is a no-op.
func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, ok := h.rooms[client.sessionID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[client.sessionID] = room
	}
	room[client] = true

	h.logger.Debug("client subscribed",
		"session_id", client.sessionID, "user_id", client.userID, "room_size", len(room))
}

// unregisterClient drops a client from its session's group. Unsubscribing
// twice is a no-op.
func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, ok := h.rooms[client.sessionID]
	if !ok {
		return
	}
	if _, subscribed := room[client]; !subscribed {
		return
	}

	delete(room, client)
	client.closeSend()
	if len(room) == 0 {
		delete(h.rooms, client.sessionID)
	}

	h.logger.Debug("client unsubscribed",
		"session_id", client.sessionID, "user_id", client.userID, "room_size", len(room))
}

// broadcastToSession delivers a payload to every subscriber of one session.
// Delivery is best-effort: a client whose send buffer is full is removed from
// the room and closed, so a slow reader never stalls the publisher and a
// later broadcast never hits its closed channel.
func (h *Hub) broadcastToSession(message *SessionMessage) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room := h.rooms[message.SessionID]
	if len(room) == 0 {
		return
	}

	for client := range room {
		if client.trySend(message.Data) {
			continue
		}
		h.logger.Warn("client send buffer full, closing connection",
			"session_id", client.sessionID, "user_id", client.userID)
		delete(room, client)
		client.closeSend()
	}
	if len(room) == 0 {
		delete(h.rooms, message.SessionID)
	}
}

// RoomSize returns the number of live connections subscribed to a session
func (h *Hub) RoomSize(sessionID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.rooms[sessionID])
}

// ConnectionCount returns the total number of live connections
func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, room := range h.rooms {
		count += len(room)
	}
	return count
}
