package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/queue-service/internal/domain"
)

// memoryQueueRepository keeps everything in process memory. It backs unit
// tests and DSN-less development runs with the same semantics as the
// Postgres repository: one writer per service, no partial commits.
// Lock order: r.mu always before a state's mu, and never both from a
// writer.
type memoryQueueRepository struct {
	mu            sync.RWMutex
	services      map[string]*memoryServiceState
	ticketService map[string]string // ticket id -> owning service id
}

type memoryServiceState struct {
	mu       sync.Mutex
	service  domain.Service
	tickets  map[string]domain.Ticket
	counters map[string]domain.Counter
}

// NewMemoryQueueRepository builds an empty in-memory repository.
func NewMemoryQueueRepository() QueueRepository {
	return &memoryQueueRepository{
		services:      make(map[string]*memoryServiceState),
		ticketService: make(map[string]string),
	}
}

func (r *memoryQueueRepository) CreateService(ctx context.Context, service *domain.Service) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	now := time.Now()
	service.CreatedAt = now
	service.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[service.ID] = &memoryServiceState{
		service:  *service,
		tickets:  make(map[string]domain.Ticket),
		counters: make(map[string]domain.Counter),
	}
	return nil
}

func (r *memoryQueueRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	state, err := r.state(id)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	service := state.service
	return &service, nil
}

func (r *memoryQueueRepository) ListServices(ctx context.Context) ([]domain.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Service, 0, len(r.services))
	for _, state := range r.services {
		state.mu.Lock()
		result = append(result, state.service)
		state.mu.Unlock()
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memoryQueueRepository) DeleteService(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.services[id]
	if !ok {
		return domain.ErrServiceNotFound
	}
	state.mu.Lock()
	for ticketID := range state.tickets {
		delete(r.ticketService, ticketID)
	}
	state.mu.Unlock()
	delete(r.services, id)
	return nil
}

func (r *memoryQueueRepository) CreateCounter(ctx context.Context, counter *domain.Counter) error {
	state, err := r.state(counter.ServiceID)
	if err != nil {
		return err
	}
	if counter.ID == "" {
		counter.ID = uuid.NewString()
	}
	now := time.Now()
	counter.CreatedAt = now
	counter.UpdatedAt = now

	state.mu.Lock()
	defer state.mu.Unlock()
	state.counters[counter.ID] = *counter
	return nil
}

func (r *memoryQueueRepository) GetCounter(ctx context.Context, id string) (*domain.Counter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, state := range r.services {
		state.mu.Lock()
		counter, ok := state.counters[id]
		state.mu.Unlock()
		if ok {
			return &counter, nil
		}
	}
	return nil, domain.ErrCounterNotFound
}

func (r *memoryQueueRepository) ListCounters(ctx context.Context, serviceID string) ([]domain.Counter, error) {
	state, err := r.state(serviceID)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	result := make([]domain.Counter, 0, len(state.counters))
	for _, counter := range state.counters {
		result = append(result, counter)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memoryQueueRepository) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	serviceID, ok := r.ticketService[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	state, err := r.state(serviceID)
	if err != nil {
		return nil, domain.ErrTicketNotFound
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	ticket, ok := state.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return &ticket, nil
}

func (r *memoryQueueRepository) ListActiveTickets(ctx context.Context, serviceID string) ([]domain.Ticket, error) {
	state, err := r.state(serviceID)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return activeTicketsLocked(state.tickets), nil
}

// UpdateQueue runs fn against a scratch copy of the service state under
// the per-service lock, committing only when fn succeeds. A failed
// transition therefore never leaves partial writes behind.
func (r *memoryQueueRepository) UpdateQueue(ctx context.Context, serviceID string, fn func(ctx context.Context, tx QueueTx) error) error {
	state, err := r.state(serviceID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	tx := &memoryQueueTx{
		service:  state.service,
		tickets:  cloneTickets(state.tickets),
		counters: cloneCounters(state.counters),
	}
	if err := fn(ctx, tx); err != nil {
		state.mu.Unlock()
		return err
	}

	state.service = tx.service
	state.tickets = tx.tickets
	state.counters = tx.counters
	committed := make([]string, 0, len(tx.tickets))
	for ticketID := range tx.tickets {
		committed = append(committed, ticketID)
	}
	state.mu.Unlock()

	// The ticket index is refreshed only after the per-service lock is
	// released. Readers take r.mu before state.mu, so holding both here
	// in the opposite order would deadlock; the index only ever grows,
	// so a post-commit update cannot publish a rolled-back ticket.
	r.mu.Lock()
	for _, ticketID := range committed {
		r.ticketService[ticketID] = serviceID
	}
	r.mu.Unlock()
	return nil
}

func (r *memoryQueueRepository) state(serviceID string) (*memoryServiceState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.services[serviceID]
	if !ok {
		return nil, domain.ErrServiceNotFound
	}
	return state, nil
}

type memoryQueueTx struct {
	service  domain.Service
	tickets  map[string]domain.Ticket
	counters map[string]domain.Counter
}

func (t *memoryQueueTx) Service() *domain.Service {
	return &t.service
}

func (t *memoryQueueTx) SaveService(ctx context.Context) error {
	t.service.UpdatedAt = time.Now()
	return nil
}

func (t *memoryQueueTx) ActiveTickets(ctx context.Context) ([]domain.Ticket, error) {
	return activeTicketsLocked(t.tickets), nil
}

func (t *memoryQueueTx) TicketByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := t.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return &ticket, nil
}

func (t *memoryQueueTx) InsertTicket(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.CreatedAt = time.Now()
	t.tickets[ticket.ID] = *ticket
	return nil
}

func (t *memoryQueueTx) SaveTicket(ctx context.Context, ticket *domain.Ticket) error {
	if _, ok := t.tickets[ticket.ID]; !ok {
		return domain.ErrTicketNotFound
	}
	t.tickets[ticket.ID] = *ticket
	return nil
}

func (t *memoryQueueTx) TicketsCreatedToday(ctx context.Context) (int, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count := 0
	for _, ticket := range t.tickets {
		if !ticket.CreatedAt.Before(midnight) {
			count++
		}
	}
	return count, nil
}

func (t *memoryQueueTx) Counters(ctx context.Context) ([]domain.Counter, error) {
	result := make([]domain.Counter, 0, len(t.counters))
	for _, counter := range t.counters {
		result = append(result, counter)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (t *memoryQueueTx) CounterByID(ctx context.Context, id string) (*domain.Counter, error) {
	counter, ok := t.counters[id]
	if !ok {
		return nil, domain.ErrCounterNotFound
	}
	return &counter, nil
}

func (t *memoryQueueTx) SaveCounter(ctx context.Context, counter *domain.Counter) error {
	if _, ok := t.counters[counter.ID]; !ok {
		return domain.ErrCounterNotFound
	}
	counter.UpdatedAt = time.Now()
	t.counters[counter.ID] = *counter
	return nil
}

func activeTicketsLocked(tickets map[string]domain.Ticket) []domain.Ticket {
	var result []domain.Ticket
	for _, ticket := range tickets {
		if ticket.Status.IsActive() {
			result = append(result, ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PositionInQueue != result[j].PositionInQueue {
			return result[i].PositionInQueue < result[j].PositionInQueue
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func cloneTickets(src map[string]domain.Ticket) map[string]domain.Ticket {
	dst := make(map[string]domain.Ticket, len(src))
	for id, ticket := range src {
		dst[id] = ticket
	}
	return dst
}

func cloneCounters(src map[string]domain.Counter) map[string]domain.Counter {
	dst := make(map[string]domain.Counter, len(src))
	for id, counter := range src {
		dst[id] = counter
	}
	return dst
}
