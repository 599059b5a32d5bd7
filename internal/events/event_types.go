package events

import "time"

// EventType enumerates session lifecycle events raised by the dev backend.
type EventType string

const (
	EventSessionCreated EventType = "session_created"
	EventSessionRotated EventType = "session_rotated"
	EventSessionRevoked EventType = "session_revoked"
	EventLoginFailed    EventType = "login_failed"
)

// Event represents one lifecycle change.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// SessionRotatedPayload links a rotated session to its successor.
type SessionRotatedPayload struct {
	PreviousID string `json:"previous_id"`
}

// SessionRevokedPayload describes why a session ended.
type SessionRevokedPayload struct {
	Reason string `json:"reason"`
}
