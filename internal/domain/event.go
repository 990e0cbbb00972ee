package domain

import "time"

// EventType names an event emitted toward clients
type EventType string

const (
	EventFolderCreated       EventType = "folder.created"
	EventFolderDeleted       EventType = "folder.deleted"
	EventFolderUpdated       EventType = "folder.updated"
	EventPermissionRequested EventType = "permission.requested"
	EventPermissionResolved  EventType = "permission.resolved"
	EventProjectCreated      EventType = "project.created"
	EventProjectDeleted      EventType = "project.deleted"
	EventProjectUpdated      EventType = "project.updated"
	EventSessionCreated      EventType = "session.created"
	EventSessionDeleted      EventType = "session.deleted"
	EventSessionOutput       EventType = "session.output"
	EventSessionUpdated      EventType = "session.updated"
)

// Event is published after the state it describes has been persisted
type Event struct {
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NewEvent stamps an event with the current time
func NewEvent(eventType EventType, payload any) Event {
	return Event{Payload: payload, Timestamp: time.Now().UTC(), Type: eventType}
}

// DeletedPayload identifies a removed entity
type DeletedPayload struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId,omitempty"`
}

// PermissionResolvedPayload reports the outcome of a permission request
type PermissionResolvedPayload struct {
	Behavior  PermissionBehavior `json:"behavior"`
	Cancelled bool               `json:"cancelled"`
	RequestID string             `json:"requestId"`
	SessionID string             `json:"sessionId"`
}
