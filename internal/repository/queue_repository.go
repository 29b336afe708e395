package repository

import (
	"context"

	"github.com/spec-kit/queue-service/internal/domain"
)

// QueueTx is the view of one service's aggregates inside a serialized
// mutation. All cross-aggregate transitions (admission, dispatch,
// completion, cancellation, no-show) run through it so position
// assignment, queue counters and ticket state always change as one unit.
type QueueTx interface {
	// Service returns the locked service aggregate. Mutations become
	// visible to other callers only after SaveService.
	Service() *domain.Service
	SaveService(ctx context.Context) error

	// ActiveTickets returns tickets in WAITING, CALLED or SERVING ordered
	// by position, then creation time.
	ActiveTickets(ctx context.Context) ([]domain.Ticket, error)
	TicketByID(ctx context.Context, id string) (*domain.Ticket, error)
	InsertTicket(ctx context.Context, ticket *domain.Ticket) error
	SaveTicket(ctx context.Context, ticket *domain.Ticket) error
	// TicketsCreatedToday counts every ticket created for the service
	// since local midnight, regardless of status. Drives ticket numbers.
	TicketsCreatedToday(ctx context.Context) (int, error)

	Counters(ctx context.Context) ([]domain.Counter, error)
	CounterByID(ctx context.Context, id string) (*domain.Counter, error)
	SaveCounter(ctx context.Context, counter *domain.Counter) error
}

// QueueRepository is the consistency boundary over the three aggregates.
// Reads outside UpdateQueue are snapshot-consistent; every mutation goes
// through UpdateQueue, which serializes writers per service id and retries
// transient conflicts before surfacing domain.ErrConflict.
type QueueRepository interface {
	CreateService(ctx context.Context, service *domain.Service) error
	GetService(ctx context.Context, id string) (*domain.Service, error)
	ListServices(ctx context.Context) ([]domain.Service, error)
	// DeleteService cascades to the service's tickets and counters.
	DeleteService(ctx context.Context, id string) error

	CreateCounter(ctx context.Context, counter *domain.Counter) error
	GetCounter(ctx context.Context, id string) (*domain.Counter, error)
	ListCounters(ctx context.Context, serviceID string) ([]domain.Counter, error)

	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	ListActiveTickets(ctx context.Context, serviceID string) ([]domain.Ticket, error)

	UpdateQueue(ctx context.Context, serviceID string, fn func(ctx context.Context, tx QueueTx) error) error
}
