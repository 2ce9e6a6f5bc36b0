package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventTicketDeleted EventType = "ticket_deleted"
	EventResponseAdded EventType = "response_added"
	EventFAQChanged    EventType = "faq_changed"
)

// AllTypes lists every event type, used by subscribers that want the full feed.
var AllTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketDeleted,
	EventResponseAdded,
	EventFAQChanged,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event is a change notification. It carries identifiers only; views refetch.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	TicketID  string         `json:"ticket_id,omitempty"`
	OwnerID   string         `json:"owner_id,omitempty"`
	Actor     Actor          `json:"actor"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// StatusPayload describes a status transition.
func StatusPayload(from, to domain.TicketStatus) map[string]any {
	return map[string]any{"old_status": string(from), "new_status": string(to)}
}
