package dto

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/estimator"
)

// TicketResponse is the API shape of a queue ticket.
type TicketResponse struct {
	ID           string              `json:"id"`
	ServiceID    string              `json:"service_id"`
	TicketNumber string              `json:"ticket_number"`
	Status       domain.TicketStatus `json:"status"`
	Position     int                 `json:"position,omitempty"`
	CounterID    *string             `json:"counter_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	CalledAt     *time.Time          `json:"called_at,omitempty"`
	StartedAt    *time.Time          `json:"started_at,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// TicketWithEstimateResponse is returned on ticket creation.
type TicketWithEstimateResponse struct {
	Ticket   TicketResponse     `json:"ticket"`
	Estimate estimator.Estimate `json:"estimate"`
}

// ResolveValidationRequest settles a pending document check.
type ResolveValidationRequest struct {
	Approved bool `json:"approved"`
}
