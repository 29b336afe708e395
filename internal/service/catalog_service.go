package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/repository"
)

// CatalogService covers administrative management of services and
// counters: creation, opening state and decommissioning.
type CatalogService struct {
	repo repository.QueueRepository
	cfg  config.QueueConfig
}

// NewCatalogService constructs the service.
func NewCatalogService(cfg config.QueueConfig, repo repository.QueueRepository) *CatalogService {
	return &CatalogService{repo: repo, cfg: cfg}
}

// ServiceCreateInput describes a new service point.
type ServiceCreateInput struct {
	Name               string
	Code               string
	Category           domain.ServiceCategory
	MaxQueueSize       int
	AvgServiceMinutes  int
	RequiresValidation bool
}

// CreateService registers a new service point, CLOSED until opened.
func (s *CatalogService) CreateService(ctx context.Context, input ServiceCreateInput) (*domain.Service, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("service name required")
	}
	avg := input.AvgServiceMinutes
	if avg <= 0 {
		avg = s.cfg.DefaultAvgServiceMinutes
	}
	category := input.Category
	if category == "" {
		category = domain.CategoryOther
	}

	svc := &domain.Service{
		Name:               name,
		Code:               strings.ToUpper(strings.TrimSpace(input.Code)),
		Category:           category,
		Status:             domain.ServiceStatusClosed,
		AffluenceLevel:     domain.AffluenceLow,
		MaxQueueSize:       input.MaxQueueSize,
		AvgServiceMinutes:  avg,
		RequiresValidation: input.RequiresValidation,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// GetService fetches one service.
func (s *CatalogService) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return s.repo.GetService(ctx, id)
}

// ListServices lists all service points.
func (s *CatalogService) ListServices(ctx context.Context) ([]domain.Service, error) {
	return s.repo.ListServices(ctx)
}

// OpenService starts admitting tickets.
func (s *CatalogService) OpenService(ctx context.Context, id string) (*domain.Service, error) {
	return s.updateService(ctx, id, func(svc *domain.Service) { svc.Open() })
}

// CloseService stops admitting tickets.
func (s *CatalogService) CloseService(ctx context.Context, id string) (*domain.Service, error) {
	return s.updateService(ctx, id, func(svc *domain.Service) { svc.Close() })
}

// PauseService temporarily stops admission.
func (s *CatalogService) PauseService(ctx context.Context, id string) (*domain.Service, error) {
	return s.updateService(ctx, id, func(svc *domain.Service) { svc.Pause() })
}

// DecommissionService deletes a service and everything it owns. Refused
// while tickets are still active.
func (s *CatalogService) DecommissionService(ctx context.Context, id string) error {
	active, err := s.repo.ListActiveTickets(ctx, id)
	if err != nil {
		return err
	}
	if len(active) > 0 {
		return domain.ErrInvalidState
	}
	return s.repo.DeleteService(ctx, id)
}

// CounterCreateInput describes a new dispatch counter.
type CounterCreateInput struct {
	ServiceID        string
	Name             string
	MaxTicketsPerDay int
}

// CreateCounter registers a counter for a service, CLOSED and unstaffed.
func (s *CatalogService) CreateCounter(ctx context.Context, input CounterCreateInput) (*domain.Counter, error) {
	if _, err := s.repo.GetService(ctx, input.ServiceID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("counter name required")
	}

	counter := &domain.Counter{
		ServiceID:        input.ServiceID,
		Name:             name,
		Status:           domain.CounterStatusClosed,
		MaxTicketsPerDay: input.MaxTicketsPerDay,
	}
	if err := s.repo.CreateCounter(ctx, counter); err != nil {
		return nil, err
	}
	return counter, nil
}

// ListCounters lists the counters of a service.
func (s *CatalogService) ListCounters(ctx context.Context, serviceID string) ([]domain.Counter, error) {
	return s.repo.ListCounters(ctx, serviceID)
}

func (s *CatalogService) updateService(ctx context.Context, id string, mutate func(*domain.Service)) (*domain.Service, error) {
	var result *domain.Service
	err := s.repo.UpdateQueue(ctx, id, func(ctx context.Context, tx repository.QueueTx) error {
		svc := tx.Service()
		mutate(svc)
		if err := tx.SaveService(ctx); err != nil {
			return err
		}
		copied := *svc
		result = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
