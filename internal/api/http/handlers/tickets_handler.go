package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// TicketsHandler manages citizen ticket endpoints.
type TicketsHandler struct {
	queue *service.QueueService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(queueService *service.QueueService) *TicketsHandler {
	return &TicketsHandler{queue: queueService}
}

// RequestTicket POST /services/:id/tickets. Works for logged-in citizens
// and anonymous walk-ins alike.
func (h *TicketsHandler) RequestTicket(c *fiber.Ctx) error {
	ticket, estimate, err := h.queue.RequestTicket(c.Context(), c.Params("id"), requesterFrom(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.TicketWithEstimateResponse{
			Ticket:   ticketResponse(ticket),
			Estimate: *estimate,
		},
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.queue.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CancelTicket POST /tickets/:id/cancel.
func (h *TicketsHandler) CancelTicket(c *fiber.Ctx) error {
	requester := requesterFrom(c)
	if requester.UserID == nil && !requester.IsAdmin {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.queue.CancelTicket(c.Context(), c.Params("id"), requester)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ResolveValidation POST /tickets/:id/validation. Agent-only.
func (h *TicketsHandler) ResolveValidation(c *fiber.Ctx) error {
	var req dto.ResolveValidationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.queue.ResolveValidation(c.Context(), c.Params("id"), req.Approved, requesterFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func requesterFrom(c *fiber.Ctx) service.Requester {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Requester{}
	}
	req := service.Requester{}
	if principal.User != nil {
		req.UserID = &principal.User.ID
	}
	if principal.Agent != nil && principal.Agent.Role == domain.AgentRoleAdmin {
		req.IsAdmin = true
	}
	return req
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:           ticket.ID,
		ServiceID:    ticket.ServiceID,
		TicketNumber: ticket.TicketNumber,
		Status:       ticket.Status,
		Position:     ticket.PositionInQueue,
		CounterID:    ticket.CounterID,
		CreatedAt:    ticket.CreatedAt,
		CalledAt:     ticket.CalledAt,
		StartedAt:    ticket.StartedAt,
		CompletedAt:  ticket.CompletedAt,
	}
}
