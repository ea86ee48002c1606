package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"popcult/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HTTP upgrade handler to WebSocket connections

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// allow all origins for development purpose; can restrict later
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades GET /ws/matching/:session_id connections and subscribes
// them to the session's broadcast group. A session id that does not resolve
// closes the connection with code 4001 before it ever joins the group.
func WSHandler(hub *Hub, matching service.MatchingService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// user info set by the JWT middleware
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: user ID not found"})
			return
		}

		sessionID := c.Param("session_id")
		sessionExists, err := matching.SessionExists(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve session"})
			return
		}

		conn, upgradeErr := upgrader.Upgrade(c.Writer, c.Request, nil)
		if upgradeErr != nil {
			logger.Warn("websocket upgrade failed", "error", upgradeErr)
			return
		}

		if !sessionExists {
			// Distinguishable close code; the connection never enters the group.
			deadline := time.Now().Add(WriteWait)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(CloseSessionNotFound, "session not found"), deadline)
			conn.Close()
			return
		}

		client := NewClient(hub, conn, sessionID, userID.(string), matching, logger)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()

		// Local acknowledgment to the connecting client only.
		ack, _ := json.Marshal(AckFrame{
			Type:      TypeConnectionAck,
			SessionID: sessionID,
			UserID:    client.userID,
		})
		client.sendLocal(ack)
	}
}
