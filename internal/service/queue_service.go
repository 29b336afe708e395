package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/estimator"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/repository"
)

// Requester identifies who is asking for a queue operation.
type Requester struct {
	UserID  *string
	IsAdmin bool
}

// QueueSnapshot is the read model for one service's queue.
type QueueSnapshot struct {
	Service       domain.Service
	ActiveTickets []domain.Ticket
	Estimate      estimator.Estimate
}

// QueueService owns ticket admission, cancellation, validation and queue
// reads. Every mutation runs through the repository's per-service
// transactional unit so positions and counters never drift.
type QueueService struct {
	repo       repository.QueueRepository
	blacklist  repository.BlacklistRepository
	estimator  *estimator.Hybrid
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// QueueDependencies bundles collaborators for the queue service.
type QueueDependencies struct {
	Repo       repository.QueueRepository
	Blacklist  repository.BlacklistRepository
	Estimator  *estimator.Hybrid
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewQueueService constructs the service.
func NewQueueService(deps QueueDependencies) *QueueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueService{
		repo:       deps.Repo,
		blacklist:  deps.Blacklist,
		estimator:  deps.Estimator,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// RequestTicket admits a citizen into a service queue and returns the new
// ticket together with the current wait estimate.
func (s *QueueService) RequestTicket(ctx context.Context, serviceID string, requester Requester) (*domain.Ticket, *estimator.Estimate, error) {
	if requester.UserID != nil {
		until, err := s.blacklist.BlacklistedUntil(ctx, *requester.UserID)
		if err != nil {
			return nil, nil, err
		}
		if until != nil {
			return nil, nil, domain.ErrBlacklisted
		}
	}

	var ticket *domain.Ticket
	var snap estimator.Snapshot
	err := s.repo.UpdateQueue(ctx, serviceID, func(ctx context.Context, tx repository.QueueTx) error {
		svc := tx.Service()
		if err := svc.CanAdmit(); err != nil {
			return err
		}

		createdToday, err := tx.TicketsCreatedToday(ctx)
		if err != nil {
			return err
		}

		t := &domain.Ticket{
			ServiceID:    svc.ID,
			RequesterID:  requester.UserID,
			TicketNumber: ticketNumber(svc, createdToday+1),
		}

		if svc.RequiresValidation {
			// No queue slot until the document check passes.
			t.Status = domain.TicketStatusPendingValidation
		} else {
			active, err := tx.ActiveTickets(ctx)
			if err != nil {
				return err
			}
			t.Status = domain.TicketStatusWaiting
			t.PositionInQueue = countHoldingPosition(active) + 1
			svc.IncrementQueue()
		}

		if err := tx.InsertTicket(ctx, t); err != nil {
			return err
		}
		if err := tx.SaveService(ctx); err != nil {
			return err
		}
		ticket = t
		snap = snapshotOf(svc)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	estimate := s.estimator.Estimate(ctx, snap)
	s.publish(ctx, events.Event{
		Type:      events.EventTicketCreated,
		ServiceID: serviceID,
		TicketID:  ticket.ID,
		Actor:     userActor(requester.UserID),
		Payload: events.TicketCreatedPayload{
			TicketNumber:     ticket.TicketNumber,
			Position:         ticket.PositionInQueue,
			Status:           ticket.Status,
			EstimatedMinutes: estimate.Minutes,
		},
	})
	s.publishQueueUpdated(ctx, serviceID, snap, estimate.Minutes)
	return ticket, &estimate, nil
}

// CancelTicket aborts a WAITING or CALLED ticket. Only the requester or an
// admin may cancel; the remaining queue is renumbered to stay dense.
func (s *QueueService) CancelTicket(ctx context.Context, ticketID string, requester Requester) (*domain.Ticket, error) {
	existing, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin && !sameRequester(existing.RequesterID, requester.UserID) {
		return nil, domain.ErrForbidden
	}

	var ticket *domain.Ticket
	var snap estimator.Snapshot
	err = s.repo.UpdateQueue(ctx, existing.ServiceID, func(ctx context.Context, tx repository.QueueTx) error {
		t, err := tx.TicketByID(ctx, ticketID)
		if err != nil {
			return err
		}
		removedPosition := t.PositionInQueue
		heldPosition := t.Status.HoldsPosition()
		wasActive := t.Status.IsActive()

		if err := t.Cancel(); err != nil {
			return err
		}
		if err := tx.SaveTicket(ctx, t); err != nil {
			return err
		}

		if t.CounterID != nil {
			if err := releaseCounter(ctx, tx, *t.CounterID, false); err != nil {
				return err
			}
		}
		if heldPosition {
			if err := shiftPositionsAfter(ctx, tx, removedPosition); err != nil {
				return err
			}
		}
		if wasActive {
			tx.Service().DecrementQueue()
		}
		if err := tx.SaveService(ctx); err != nil {
			return err
		}
		ticket = t
		snap = snapshotOf(tx.Service())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketCancelled,
		ServiceID: ticket.ServiceID,
		TicketID:  ticket.ID,
		Actor:     userActor(requester.UserID),
		Payload: events.TicketClosedPayload{
			TicketNumber: ticket.TicketNumber,
			FinalStatus:  ticket.Status,
			CounterID:    ticket.CounterID,
		},
	})
	s.publishQueueUpdated(ctx, ticket.ServiceID, snap, 0)
	return ticket, nil
}

// ResolveValidation settles a PENDING_VALIDATION ticket: approval assigns
// the next queue position, rejection terminates the ticket.
func (s *QueueService) ResolveValidation(ctx context.Context, ticketID string, approved bool, actor Requester) (*domain.Ticket, error) {
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
		if approved {
			active, err := tx.ActiveTickets(ctx)
			if err != nil {
				return err
			}
			if err := t.ResolveValidation(true); err != nil {
				return err
			}
			t.PositionInQueue = countHoldingPosition(active) + 1
			tx.Service().IncrementQueue()
		} else if err := t.ResolveValidation(false); err != nil {
			return err
		}
		if err := tx.SaveTicket(ctx, t); err != nil {
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

	if !approved {
		s.publish(ctx, events.Event{
			Type:      events.EventTicketRejected,
			ServiceID: ticket.ServiceID,
			TicketID:  ticket.ID,
			Payload: events.TicketClosedPayload{
				TicketNumber: ticket.TicketNumber,
				FinalStatus:  ticket.Status,
			},
		})
	}
	return ticket, nil
}

// GetTicket fetches a single ticket.
func (s *QueueService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.repo.GetTicket(ctx, ticketID)
}

// GetQueueSnapshot returns queue size, wait estimate, affluence level and
// the active tickets for a service.
func (s *QueueService) GetQueueSnapshot(ctx context.Context, serviceID string) (*QueueSnapshot, error) {
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.ListActiveTickets(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	estimate := s.estimator.Estimate(ctx, snapshotOf(svc))
	return &QueueSnapshot{
		Service:       *svc,
		ActiveTickets: active,
		Estimate:      estimate,
	}, nil
}

// EstimateWait runs the hybrid estimator against current service state.
func (s *QueueService) EstimateWait(ctx context.Context, serviceID string) (*estimator.Estimate, error) {
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	estimate := s.estimator.Estimate(ctx, snapshotOf(svc))
	return &estimate, nil
}

func (s *QueueService) publishQueueUpdated(ctx context.Context, serviceID string, snap estimator.Snapshot, estimatedMinutes int) {
	s.publish(ctx, events.Event{
		Type:      events.EventQueueUpdated,
		ServiceID: serviceID,
		Payload: events.QueueUpdatedPayload{
			QueueSize:        snap.QueueSize,
			AffluenceLevel:   snap.AffluenceLevel,
			EstimatedMinutes: estimatedMinutes,
		},
	})
}

func (s *QueueService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

// ticketNumber formats the per-service per-day sequence, e.g. "N-007".
func ticketNumber(svc *domain.Service, sequence int) string {
	code := svc.Code
	if code == "" {
		code = "N"
	}
	return fmt.Sprintf("%s-%03d", code, sequence)
}

func countHoldingPosition(tickets []domain.Ticket) int {
	count := 0
	for _, t := range tickets {
		if t.Status.HoldsPosition() {
			count++
		}
	}
	return count
}

// shiftPositionsAfter closes the gap left by a departed ticket so
// positions stay dense.
func shiftPositionsAfter(ctx context.Context, tx repository.QueueTx, removedPosition int) error {
	if removedPosition <= 0 {
		return nil
	}
	active, err := tx.ActiveTickets(ctx)
	if err != nil {
		return err
	}
	for i := range active {
		t := &active[i]
		if t.Status.HoldsPosition() && t.PositionInQueue > removedPosition {
			t.PositionInQueue--
			if err := tx.SaveTicket(ctx, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func releaseCounter(ctx context.Context, tx repository.QueueTx, counterID string, served bool) error {
	counter, err := tx.CounterByID(ctx, counterID)
	if err != nil {
		return err
	}
	counter.Release(served)
	return tx.SaveCounter(ctx, counter)
}

func snapshotOf(svc *domain.Service) estimator.Snapshot {
	return estimator.Snapshot{
		ServiceID:         svc.ID,
		Category:          svc.Category,
		QueueSize:         svc.CurrentQueueSize,
		AvgServiceMinutes: svc.AvgServiceMinutes,
		AffluenceLevel:    svc.AffluenceLevel,
	}
}

func sameRequester(owner, caller *string) bool {
	return owner != nil && caller != nil && *owner == *caller
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func userActor(userID *string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeUser, UserID: userID}
}
