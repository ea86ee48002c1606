package websocket

import (
	"encoding/json"

	"popcult/internal/microservices/http-api/service"
)

// Frame protocol for the matching session channel.
//
// client -> server: {"action":"swipe","movie_id":"<uuid>","liked":true}
// server -> client: {"type":"results_update","results":[...],"swipe":{...}}
//                   {"type":"connection_ack",...} (connecting client only)
//                   {"type":"error","code":...,"message":...} (offending client only)

type MessageType string

const (
	TypeConnectionAck MessageType = "connection_ack"
	TypeResultsUpdate MessageType = "results_update"
	TypeError         MessageType = "error"
)

// Inbound actions
const ActionSwipe = "swipe"

// Close code sent when the session id in the connection path does not resolve
const CloseSessionNotFound = 4001

// Error frame codes
const (
	ErrCodeNotAParticipant = "not_a_participant"
	ErrCodeSessionClosed   = "session_closed"
	ErrCodeMovieNotFound   = "movie_not_found"
	ErrCodeInvalidFrame    = "invalid_frame"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeInternal        = "internal_error"
)

// InboundFrame is one client event. Only swipe is defined; joining is
// implicit in connecting.
type InboundFrame struct {
	Action  string `json:"action"`
	MovieID string `json:"movie_id"`
	Liked   *bool  `json:"liked"`
}

// AckFrame confirms a successful subscribe to the connecting client
type AckFrame struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
}

// ResultsUpdateFrame carries the ranked results and the triggering swipe
type ResultsUpdateFrame struct {
	Type MessageType `json:"type"`
	service.ResultsUpdateEvent
}

// ErrorFrame reports a rejected inbound event to the offending connection only
type ErrorFrame struct {
	Type    MessageType `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

func NewErrorFrame(code, message string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Code: code, Message: message}
}

func (f ErrorFrame) ToJSON() []byte {
	data, _ := json.Marshal(f)
	return data
}
