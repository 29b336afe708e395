package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/service"
)

// QueuesHandler exposes public queue reads.
type QueuesHandler struct {
	queue   *service.QueueService
	catalog *service.CatalogService
}

// NewQueuesHandler constructs handler.
func NewQueuesHandler(queueService *service.QueueService, catalogService *service.CatalogService) *QueuesHandler {
	return &QueuesHandler{queue: queueService, catalog: catalogService}
}

// ListServices GET /services.
func (h *QueuesHandler) ListServices(c *fiber.Ctx) error {
	services, err := h.catalog.ListServices(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ServiceResponse, 0, len(services))
	for i := range services {
		items = append(items, serviceResponse(&services[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetService GET /services/:id.
func (h *QueuesHandler) GetService(c *fiber.Ctx) error {
	svc, err := h.catalog.GetService(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": serviceResponse(svc)})
}

// GetQueue GET /services/:id/queue.
func (h *QueuesHandler) GetQueue(c *fiber.Ctx) error {
	snapshot, err := h.queue.GetQueueSnapshot(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	tickets := make([]dto.TicketResponse, 0, len(snapshot.ActiveTickets))
	for i := range snapshot.ActiveTickets {
		tickets = append(tickets, ticketResponse(&snapshot.ActiveTickets[i]))
	}
	return c.JSON(fiber.Map{
		"data": dto.QueueSnapshotResponse{
			Service:  serviceResponse(&snapshot.Service),
			Tickets:  tickets,
			Estimate: snapshot.Estimate,
		},
	})
}

// EstimateWait GET /services/:id/estimate.
func (h *QueuesHandler) EstimateWait(c *fiber.Ctx) error {
	estimate, err := h.queue.EstimateWait(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": estimate})
}

func serviceResponse(svc *domain.Service) dto.ServiceResponse {
	return dto.ServiceResponse{
		ID:                 svc.ID,
		Name:               svc.Name,
		Code:               svc.Code,
		Category:           svc.Category,
		Status:             svc.Status,
		AffluenceLevel:     svc.AffluenceLevel,
		CurrentQueueSize:   svc.CurrentQueueSize,
		MaxQueueSize:       svc.MaxQueueSize,
		AvgServiceMinutes:  svc.AvgServiceMinutes,
		EstimatedWaitTime:  svc.EstimatedWaitTime,
		TotalTicketsServed: svc.TotalTicketsServed,
		RequiresValidation: svc.RequiresValidation,
		CreatedAt:          svc.CreatedAt,
	}
}
