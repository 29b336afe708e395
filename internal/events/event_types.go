package events

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketCalled    EventType = "ticket_called"
	EventTicketServing   EventType = "ticket_serving"
	EventTicketCompleted EventType = "ticket_completed"
	EventTicketCancelled EventType = "ticket_cancelled"
	EventTicketNoShow    EventType = "ticket_no_show"
	EventTicketRejected  EventType = "ticket_rejected"
	EventQueueUpdated    EventType = "queue_updated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	AgentID *string            `json:"agent_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ServiceID string      `json:"service_id"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber     string              `json:"ticket_number"`
	Position         int                 `json:"position"`
	Status           domain.TicketStatus `json:"status"`
	EstimatedMinutes int                 `json:"estimated_minutes"`
}

// TicketCalledPayload payload.
type TicketCalledPayload struct {
	TicketNumber string `json:"ticket_number"`
	CounterID    string `json:"counter_id"`
	CounterName  string `json:"counter_name"`
}

// TicketClosedPayload covers completed, cancelled, rejected and no-show
// terminations.
type TicketClosedPayload struct {
	TicketNumber string              `json:"ticket_number"`
	FinalStatus  domain.TicketStatus `json:"final_status"`
	CounterID    *string             `json:"counter_id,omitempty"`
}

// QueueUpdatedPayload carries the aggregate state after any mutation.
type QueueUpdatedPayload struct {
	QueueSize        int                   `json:"queue_size"`
	AffluenceLevel   domain.AffluenceLevel `json:"affluence_level"`
	EstimatedMinutes int                   `json:"estimated_minutes"`
}
