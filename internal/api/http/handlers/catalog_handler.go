package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// CatalogHandler exposes admin endpoints for services and counters.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

// CreateService POST /admin/services.
func (h *CatalogHandler) CreateService(c *fiber.Ctx) error {
	var req dto.CreateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	svc, err := h.catalog.CreateService(c.Context(), service.ServiceCreateInput{
		Name:               req.Name,
		Code:               req.Code,
		Category:           req.Category,
		MaxQueueSize:       req.MaxQueueSize,
		AvgServiceMinutes:  req.AvgServiceMinutes,
		RequiresValidation: req.RequiresValidation,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": serviceResponse(svc)})
}

// OpenService POST /admin/services/:id/open.
func (h *CatalogHandler) OpenService(c *fiber.Ctx) error {
	return h.respondService(c, h.catalog.OpenService)
}

// CloseService POST /admin/services/:id/close.
func (h *CatalogHandler) CloseService(c *fiber.Ctx) error {
	return h.respondService(c, h.catalog.CloseService)
}

// PauseService POST /admin/services/:id/pause.
func (h *CatalogHandler) PauseService(c *fiber.Ctx) error {
	return h.respondService(c, h.catalog.PauseService)
}

// DecommissionService DELETE /admin/services/:id.
func (h *CatalogHandler) DecommissionService(c *fiber.Ctx) error {
	if err := h.catalog.DecommissionService(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateCounter POST /admin/counters.
func (h *CatalogHandler) CreateCounter(c *fiber.Ctx) error {
	var req dto.CreateCounterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ServiceID == "" || req.Name == "" {
		return apperrors.NewValidationError("service_id and name required", nil)
	}

	counter, err := h.catalog.CreateCounter(c.Context(), service.CounterCreateInput{
		ServiceID:        req.ServiceID,
		Name:             req.Name,
		MaxTicketsPerDay: req.MaxTicketsPerDay,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": counterResponse(counter)})
}

// ListCounters GET /services/:id/counters.
func (h *CatalogHandler) ListCounters(c *fiber.Ctx) error {
	counters, err := h.catalog.ListCounters(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CounterResponse, 0, len(counters))
	for i := range counters {
		items = append(items, counterResponse(&counters[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *CatalogHandler) respondService(c *fiber.Ctx, op func(ctx context.Context, id string) (*domain.Service, error)) error {
	svc, err := op(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": serviceResponse(svc)})
}

func counterResponse(counter *domain.Counter) dto.CounterResponse {
	return dto.CounterResponse{
		ID:                    counter.ID,
		ServiceID:             counter.ServiceID,
		Name:                  counter.Name,
		Status:                counter.Status,
		AgentID:               counter.AgentID,
		CurrentTicketID:       counter.CurrentTicketID,
		TicketsProcessedToday: counter.TicketsProcessedToday,
		MaxTicketsPerDay:      counter.MaxTicketsPerDay,
	}
}
