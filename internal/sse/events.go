// Package sse streams per-user realtime events over Server-Sent Events.
package sse

import (
	"time"

	"github.com/cineza/cineza-server/internal/domain"
)

// EventType names an SSE event.
type EventType string

const (
	EventNotificationCreated EventType = "notification.created"
	EventHeartbeat           EventType = "heartbeat"
	EventConnected           EventType = "connected"
)

// Event is one message on the stream. UserID selects the recipient and is
// never sent to clients; an empty UserID reaches everyone.
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"-"`
}

// NewNotificationEvent wraps a stored notification for its recipient.
func NewNotificationEvent(n *domain.Notification) Event {
	return Event{
		Type:      EventNotificationCreated,
		Data:      n,
		Timestamp: time.Now(),
		UserID:    n.RecipientID,
	}
}

// NewHeartbeatEvent returns a keepalive addressed to every client.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Data:      map[string]any{},
		Timestamp: time.Now(),
	}
}
