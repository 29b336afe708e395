package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// DispatchHandler exposes agent endpoints for calling and serving tickets
// and for counter staffing.
type DispatchHandler struct {
	dispatch *service.DispatchService
}

// NewDispatchHandler constructs handler.
func NewDispatchHandler(dispatchService *service.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatch: dispatchService}
}

// CallNext POST /services/:id/call-next.
func (h *DispatchHandler) CallNext(c *fiber.Ctx) error {
	ticket, err := h.dispatch.CallNext(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// StartServing POST /counters/:id/serve.
func (h *DispatchHandler) StartServing(c *fiber.Ctx) error {
	ticket, err := h.dispatch.StartServing(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CompleteCurrent POST /counters/:id/complete.
func (h *DispatchHandler) CompleteCurrent(c *fiber.Ctx) error {
	ticket, err := h.dispatch.CompleteCurrent(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// MarkNoShow POST /tickets/:id/no-show.
func (h *DispatchHandler) MarkNoShow(c *fiber.Ctx) error {
	ticket, err := h.dispatch.MarkNoShow(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// OpenCounter POST /counters/:id/open.
func (h *DispatchHandler) OpenCounter(c *fiber.Ctx) error {
	return h.respondCounter(c, h.dispatch.OpenCounter)
}

// CloseCounter POST /counters/:id/close.
func (h *DispatchHandler) CloseCounter(c *fiber.Ctx) error {
	return h.respondCounter(c, h.dispatch.CloseCounter)
}

// PauseCounter POST /counters/:id/pause.
func (h *DispatchHandler) PauseCounter(c *fiber.Ctx) error {
	return h.respondCounter(c, h.dispatch.PauseCounter)
}

// AssignAgent PUT /counters/:id/agent.
func (h *DispatchHandler) AssignAgent(c *fiber.Ctx) error {
	var req dto.AssignAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentID == "" {
		return apperrors.NewValidationError("agent_id required", nil)
	}
	counter, err := h.dispatch.AssignAgent(c.Context(), c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counterResponse(counter)})
}

// RemoveAgent DELETE /counters/:id/agent.
func (h *DispatchHandler) RemoveAgent(c *fiber.Ctx) error {
	return h.respondCounter(c, h.dispatch.RemoveAgent)
}

func (h *DispatchHandler) respondCounter(c *fiber.Ctx, op func(ctx context.Context, id string) (*domain.Counter, error)) error {
	counter, err := op(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counterResponse(counter)})
}
