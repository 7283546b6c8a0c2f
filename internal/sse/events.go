// Package sse streams collection state to clients as Server-Sent Events.
package sse

import (
	"time"

	"github.com/listenupapp/listenup-tracker/internal/collection"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventConnected is the first event on every stream.
	EventConnected EventType = "connected"
	// EventCollectionState carries a full collection state snapshot.
	EventCollectionState EventType = "collection.state"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// SessionID limits delivery to clients watching that session. Empty
	// means every client.
	SessionID string `json:"-"`
}

// StateEventData is the payload of collection.state events.
type StateEventData struct {
	SessionID string           `json:"session_id"`
	View      collection.View  `json:"view"`
	State     collection.State `json:"state"`
}

// ConnectedEventData is the payload of the connected event.
type ConnectedEventData struct {
	ClientID  string `json:"client_id"`
	SessionID string `json:"session_id,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewStateEvent wraps a published state for the given session.
func NewStateEvent(sessionID string, state collection.State) Event {
	return Event{
		Type:      EventCollectionState,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data: StateEventData{
			SessionID: sessionID,
			View:      state.View(),
			State:     state,
		},
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
