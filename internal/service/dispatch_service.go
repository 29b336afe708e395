package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/repository"
)

// DispatchService orchestrates calling tickets to counters, service
// completion, no-show bookkeeping and counter staffing. It is the only
// writer of ticket-to-counter transitions.
type DispatchService struct {
	repo       repository.QueueRepository
	blacklist  repository.BlacklistRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.QueueConfig
}

// DispatchDependencies bundles collaborators for the dispatch service.
type DispatchDependencies struct {
	Repo       repository.QueueRepository
	Blacklist  repository.BlacklistRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewDispatchService constructs the service.
func NewDispatchService(cfg config.QueueConfig, deps DispatchDependencies) *DispatchService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchService{
		repo:       deps.Repo,
		blacklist:  deps.Blacklist,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// CallNext dispatches the waiting ticket with the smallest position to an
// available counter. Nothing is mutated when no ticket or no counter
// qualifies.
func (s *DispatchService) CallNext(ctx context.Context, serviceID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	var counterName string
	err := s.repo.UpdateQueue(ctx, serviceID, func(ctx context.Context, tx repository.QueueTx) error {
		active, err := tx.ActiveTickets(ctx)
		if err != nil {
			return err
		}
		next := nextWaiting(active)
		if next == nil {
			return domain.ErrNoWaitingTicket
		}

		counters, err := tx.Counters(ctx)
		if err != nil {
			return err
		}
		counter := firstAvailable(counters)
		if counter == nil {
			return domain.ErrNoAvailableCounter
		}

		if err := next.Call(counter.ID, time.Now()); err != nil {
			return err
		}
		if err := counter.Bind(next.ID); err != nil {
			return err
		}
		if err := tx.SaveTicket(ctx, next); err != nil {
			return err
		}
		if err := tx.SaveCounter(ctx, counter); err != nil {
			return err
		}
		ticket = next
		counterName = counter.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketCalled,
		ServiceID: serviceID,
		TicketID:  ticket.ID,
		Payload: events.TicketCalledPayload{
			TicketNumber: ticket.TicketNumber,
			CounterID:    *ticket.CounterID,
			CounterName:  counterName,
		},
	})
	return ticket, nil
}

// StartServing marks the counter's called ticket as being served.
func (s *DispatchService) StartServing(ctx context.Context, counterID string) (*domain.Ticket, error) {
	counter, err := s.repo.GetCounter(ctx, counterID)
	if err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err = s.repo.UpdateQueue(ctx, counter.ServiceID, func(ctx context.Context, tx repository.QueueTx) error {
		c, err := tx.CounterByID(ctx, counterID)
		if err != nil {
			return err
		}
		if c.CurrentTicketID == nil {
			return domain.ErrInvalidState
		}
		t, err := tx.TicketByID(ctx, *c.CurrentTicketID)
		if err != nil {
			return err
		}
		// The ticket leaves the position ordering once service starts; the
		// rest of the queue closes the gap.
		removedPosition := t.PositionInQueue
		if err := t.StartServing(time.Now()); err != nil {
			return err
		}
		t.PositionInQueue = 0
		if err := tx.SaveTicket(ctx, t); err != nil {
			return err
		}
		if err := shiftPositionsAfter(ctx, tx, removedPosition); err != nil {
			return err
		}
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketServing,
		ServiceID: ticket.ServiceID,
		TicketID:  ticket.ID,
		Payload: events.TicketCalledPayload{
			TicketNumber: ticket.TicketNumber,
			CounterID:    counterID,
		},
	})
	return ticket, nil
}

// CompleteCurrent finishes the counter's in-service ticket, frees the
// counter and updates service totals.
func (s *DispatchService) CompleteCurrent(ctx context.Context, counterID string) (*domain.Ticket, error) {
	counter, err := s.repo.GetCounter(ctx, counterID)
	if err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err = s.repo.UpdateQueue(ctx, counter.ServiceID, func(ctx context.Context, tx repository.QueueTx) error {
		c, err := tx.CounterByID(ctx, counterID)
		if err != nil {
			return err
		}
		if c.CurrentTicketID == nil {
			return domain.ErrInvalidState
		}
		t, err := tx.TicketByID(ctx, *c.CurrentTicketID)
		if err != nil {
			return err
		}
		if t.Status != domain.TicketStatusServing {
			return domain.ErrInvalidState
		}
		if err := t.Complete(time.Now()); err != nil {
			return err
		}
		c.Release(true)

		svc := tx.Service()
		svc.TotalTicketsServed++
		svc.DecrementQueue()

		if err := tx.SaveTicket(ctx, t); err != nil {
			return err
		}
		if err := tx.SaveCounter(ctx, c); err != nil {
			return err
		}
		if err := tx.SaveService(ctx); err != nil {
			return err
		}
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketCompleted,
		ServiceID: ticket.ServiceID,
		TicketID:  ticket.ID,
		Payload: events.TicketClosedPayload{
			TicketNumber: ticket.TicketNumber,
			FinalStatus:  ticket.Status,
			CounterID:    ticket.CounterID,
		},
	})
	return ticket, nil
}

// MarkNoShow records a no-show for a called ticket, frees its counter,
// renumbers the queue and applies anti-abuse policy.
func (s *DispatchService) MarkNoShow(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	existing, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err = s.repo.UpdateQueue(ctx, existing.ServiceID, func(ctx context.Context, tx repository.QueueTx) error {
		t, err := tx.TicketByID(ctx, ticketID)
		if err != nil {
			return err
		}
		removedPosition := t.PositionInQueue
		if err := t.MarkNoShow(); err != nil {
			return err
		}

		// Anonymous tickets carry their blacklist state themselves;
		// known users are tracked in the blacklist store below.
		if t.RequesterID == nil && t.NoShowCount >= s.cfg.NoShowThreshold {
			until := time.Now().Add(s.cfg.BlacklistTTL())
			t.IsBlacklisted = true
			t.BlacklistUntil = &until
		}

		if err := tx.SaveTicket(ctx, t); err != nil {
			return err
		}
		if t.CounterID != nil {
			if err := releaseCounter(ctx, tx, *t.CounterID, false); err != nil {
				return err
			}
		}
		if err := shiftPositionsAfter(ctx, tx, removedPosition); err != nil {
			return err
		}
		tx.Service().DecrementQueue()
		if err := tx.SaveService(ctx); err != nil {
			return err
		}
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if ticket.RequesterID != nil {
		s.recordUserNoShow(ctx, *ticket.RequesterID)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketNoShow,
		ServiceID: ticket.ServiceID,
		TicketID:  ticket.ID,
		Payload: events.TicketClosedPayload{
			TicketNumber: ticket.TicketNumber,
			FinalStatus:  ticket.Status,
			CounterID:    ticket.CounterID,
		},
	})
	return ticket, nil
}

// recordUserNoShow bumps the user's rolling counter and blacklists past
// the threshold. Failures here must not undo the queue transition, so
// they are logged and swallowed.
func (s *DispatchService) recordUserNoShow(ctx context.Context, userID string) {
	count, err := s.blacklist.RegisterNoShow(ctx, userID)
	if err != nil {
		s.logger.Warn("no-show bookkeeping failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if count < s.cfg.NoShowThreshold {
		return
	}
	until := time.Now().Add(s.cfg.BlacklistTTL())
	if err := s.blacklist.Blacklist(ctx, userID, until); err != nil {
		s.logger.Warn("blacklist write failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.logger.Info("user blacklisted after repeated no-shows",
		zap.String("user_id", userID),
		zap.Int("no_show_count", count),
		zap.Time("until", until))
}

// OpenCounter activates a counter; without an agent assigned the status
// stays CLOSED.
func (s *DispatchService) OpenCounter(ctx context.Context, counterID string) (*domain.Counter, error) {
	return s.updateCounter(ctx, counterID, func(c *domain.Counter) error {
		c.Open()
		return nil
	})
}

// CloseCounter deactivates a counter not currently serving anyone.
func (s *DispatchService) CloseCounter(ctx context.Context, counterID string) (*domain.Counter, error) {
	return s.updateCounter(ctx, counterID, func(c *domain.Counter) error {
		if c.CurrentTicketID != nil {
			return domain.ErrCounterBusy
		}
		c.Close()
		return nil
	})
}

// PauseCounter suspends dispatching to an open counter.
func (s *DispatchService) PauseCounter(ctx context.Context, counterID string) (*domain.Counter, error) {
	return s.updateCounter(ctx, counterID, func(c *domain.Counter) error {
		c.Pause()
		return nil
	})
}

// AssignAgent staffs a counter.
func (s *DispatchService) AssignAgent(ctx context.Context, counterID, agentID string) (*domain.Counter, error) {
	return s.updateCounter(ctx, counterID, func(c *domain.Counter) error {
		c.AssignAgent(agentID)
		return nil
	})
}

// RemoveAgent unstaffs a counter, force-closing it. Fails while a ticket
// is bound.
func (s *DispatchService) RemoveAgent(ctx context.Context, counterID string) (*domain.Counter, error) {
	return s.updateCounter(ctx, counterID, func(c *domain.Counter) error {
		return c.RemoveAgent()
	})
}

func (s *DispatchService) updateCounter(ctx context.Context, counterID string, mutate func(*domain.Counter) error) (*domain.Counter, error) {
	existing, err := s.repo.GetCounter(ctx, counterID)
	if err != nil {
		return nil, err
	}

	var counter *domain.Counter
	err = s.repo.UpdateQueue(ctx, existing.ServiceID, func(ctx context.Context, tx repository.QueueTx) error {
		c, err := tx.CounterByID(ctx, counterID)
		if err != nil {
			return err
		}
		if err := mutate(c); err != nil {
			return err
		}
		if err := tx.SaveCounter(ctx, c); err != nil {
			return err
		}
		counter = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counter, nil
}

func (s *DispatchService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func nextWaiting(tickets []domain.Ticket) *domain.Ticket {
	for i := range tickets {
		if tickets[i].Status == domain.TicketStatusWaiting {
			return &tickets[i]
		}
	}
	return nil
}

func firstAvailable(counters []domain.Counter) *domain.Counter {
	for i := range counters {
		if counters[i].IsAvailable() {
			return &counters[i]
		}
	}
	return nil
}
