package dto

import (
	"time"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/estimator"
)

// ServiceResponse is the API shape of a service point.
type ServiceResponse struct {
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	Code               string                 `json:"code"`
	Category           domain.ServiceCategory `json:"category"`
	Status             domain.ServiceStatus   `json:"status"`
	AffluenceLevel     domain.AffluenceLevel  `json:"affluence_level"`
	CurrentQueueSize   int                    `json:"current_queue_size"`
	MaxQueueSize       int                    `json:"max_queue_size"`
	AvgServiceMinutes  int                    `json:"avg_service_minutes"`
	EstimatedWaitTime  int                    `json:"estimated_wait_time"`
	TotalTicketsServed int                    `json:"total_tickets_served"`
	RequiresValidation bool                   `json:"requires_validation"`
	CreatedAt          time.Time              `json:"created_at"`
}

// QueueSnapshotResponse is the read model for one queue.
type QueueSnapshotResponse struct {
	Service  ServiceResponse    `json:"service"`
	Tickets  []TicketResponse   `json:"tickets"`
	Estimate estimator.Estimate `json:"estimate"`
}

// CreateServiceRequest payload.
type CreateServiceRequest struct {
	Name               string                 `json:"name"`
	Code               string                 `json:"code"`
	Category           domain.ServiceCategory `json:"category"`
	MaxQueueSize       int                    `json:"max_queue_size"`
	AvgServiceMinutes  int                    `json:"avg_service_minutes"`
	RequiresValidation bool                   `json:"requires_validation"`
}

// CounterResponse is the API shape of a dispatch counter.
type CounterResponse struct {
	ID                    string               `json:"id"`
	ServiceID             string               `json:"service_id"`
	Name                  string               `json:"name"`
	Status                domain.CounterStatus `json:"status"`
	AgentID               *string              `json:"agent_id,omitempty"`
	CurrentTicketID       *string              `json:"current_ticket_id,omitempty"`
	TicketsProcessedToday int                  `json:"tickets_processed_today"`
	MaxTicketsPerDay      int                  `json:"max_tickets_per_day"`
}

// CreateCounterRequest payload.
type CreateCounterRequest struct {
	ServiceID        string `json:"service_id"`
	Name             string `json:"name"`
	MaxTicketsPerDay int    `json:"max_tickets_per_day"`
}

// AssignAgentRequest payload.
type AssignAgentRequest struct {
	AgentID string `json:"agent_id"`
}
