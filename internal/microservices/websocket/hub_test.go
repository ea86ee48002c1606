package websocket

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(hub *Hub, sessionID, userID string) *Client {
	// conn stays nil; hub paths only touch the send channel
	return NewClient(hub, nil, sessionID, userID, nil, slog.Default())
}

func TestHub_RegisterAndRoomSize(t *testing.T) {
	hub := NewHub(slog.Default())

	a1 := newTestClient(hub, "session-a", "user-1")
	a2 := newTestClient(hub, "session-a", "user-2")
	b1 := newTestClient(hub, "session-b", "user-3")

	hub.registerClient(a1)
	hub.registerClient(a2)
	hub.registerClient(b1)

	assert.Equal(t, 2, hub.RoomSize("session-a"))
	assert.Equal(t, 1, hub.RoomSize("session-b"))
	assert.Equal(t, 0, hub.RoomSize("session-c"))
	assert.Equal(t, 3, hub.ConnectionCount())
}

func TestHub_RegisterTwiceIsNoOp(t *testing.T) {
	hub := NewHub(slog.Default())
	client := newTestClient(hub, "session-a", "user-1")

	hub.registerClient(client)
	hub.registerClient(client)

	assert.Equal(t, 1, hub.RoomSize("session-a"))
}

func TestHub_UnregisterRemovesEmptyRoom(t *testing.T) {
	hub := NewHub(slog.Default())
	client := newTestClient(hub, "session-a", "user-1")

	hub.registerClient(client)
	hub.unregisterClient(client)

	assert.Equal(t, 0, hub.RoomSize("session-a"))
	assert.Equal(t, 0, hub.ConnectionCount())

	// send channel is closed so the write pump exits
	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_UnregisterTwiceIsNoOp(t *testing.T) {
	hub := NewHub(slog.Default())
	client := newTestClient(hub, "session-a", "user-1")

	hub.registerClient(client)
	hub.unregisterClient(client)
	hub.unregisterClient(client)

	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_BroadcastReachesOnlySessionSubscribers(t *testing.T) {
	hub := NewHub(slog.Default())

	a1 := newTestClient(hub, "session-a", "user-1")
	a2 := newTestClient(hub, "session-a", "user-2")
	b1 := newTestClient(hub, "session-b", "user-3")

	hub.registerClient(a1)
	hub.registerClient(a2)
	hub.registerClient(b1)

	payload := []byte(`{"type":"results_update"}`)
	hub.broadcastToSession(&SessionMessage{SessionID: "session-a", Data: payload})

	assert.Equal(t, payload, <-a1.send)
	assert.Equal(t, payload, <-a2.send)
	select {
	case data := <-b1.send:
		t.Fatalf("unexpected delivery to other session: %s", data)
	default:
	}
}

func TestHub_BroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub(slog.Default())

	// must not panic or block
	hub.broadcastToSession(&SessionMessage{SessionID: "nobody-here", Data: []byte("x")})
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub(slog.Default())
	client := newTestClient(hub, "session-a", "user-1")
	healthy := newTestClient(hub, "session-a", "user-2")
	hub.registerClient(client)
	hub.registerClient(healthy)

	// Fill the send buffer without a reader; the next broadcast drops the
	// client from the room instead of blocking the fan-out.
	for i := 0; i < cap(client.send); i++ {
		client.send <- []byte("fill")
	}
	hub.broadcastToSession(&SessionMessage{SessionID: "session-a", Data: []byte("overflow")})

	assert.Equal(t, 1, hub.RoomSize("session-a"))

	// The next broadcast must not touch the dropped client's closed channel;
	// only the healthy client receives it.
	<-healthy.send
	hub.broadcastToSession(&SessionMessage{SessionID: "session-a", Data: []byte("after-drop")})
	assert.Equal(t, []byte("after-drop"), <-healthy.send)

	// drain: the dropped channel must be closed after the buffered frames
	closed := false
	for i := 0; i <= cap(client.send); i++ {
		if _, open := <-client.send; !open {
			closed = true
			break
		}
	}
	assert.True(t, closed)
}

func TestHub_SlowDropEmptiesRoom(t *testing.T) {
	hub := NewHub(slog.Default())
	client := newTestClient(hub, "session-a", "user-1")
	hub.registerClient(client)

	for i := 0; i < cap(client.send); i++ {
		client.send <- []byte("fill")
	}
	hub.broadcastToSession(&SessionMessage{SessionID: "session-a", Data: []byte("overflow")})

	assert.Equal(t, 0, hub.RoomSize("session-a"))
	assert.Equal(t, 0, hub.ConnectionCount())

	// Unregistering the already-dropped client later is still a no-op.
	hub.unregisterClient(client)
}

func TestClient_SendLocalAfterDrop(t *testing.T) {
	hub := NewHub(slog.Default())
	client := newTestClient(hub, "session-a", "user-1")
	hub.registerClient(client)
	hub.unregisterClient(client)

	// must not panic on the closed channel
	client.sendLocal([]byte(`{"type":"error"}`))
}

func TestClient_ContextEndsWithConnection(t *testing.T) {
	hub := NewHub(slog.Default())
	client := newTestClient(hub, "session-a", "user-1")
	hub.registerClient(client)

	assert.NoError(t, client.ctx.Err())

	hub.unregisterClient(client)

	assert.ErrorIs(t, client.ctx.Err(), context.Canceled)
}

func TestHub_RunDispatchesChannels(t *testing.T) {
	hub := NewHub(slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := newTestClient(hub, "session-a", "user-1")
	hub.register <- client

	assert.Eventually(t, func() bool {
		return hub.RoomSize("session-a") == 1
	}, time.Second, 5*time.Millisecond)

	hub.broadcast <- &SessionMessage{SessionID: "session-a", Data: []byte("hello")}
	select {
	case data := <-client.send:
		assert.Equal(t, []byte("hello"), data)
	case <-time.After(time.Second):
		t.Fatal("broadcast never delivered")
	}

	hub.unregister <- client
	assert.Eventually(t, func() bool {
		return hub.ConnectionCount() == 0
	}, time.Second, 5*time.Millisecond)
}
