package domain

import "time"

// TicketStatus enumerates lifecycle states for queue tickets.
type TicketStatus string

const (
	TicketStatusPendingValidation TicketStatus = "PENDING_VALIDATION"
	TicketStatusWaiting           TicketStatus = "WAITING"
	TicketStatusCalled            TicketStatus = "CALLED"
	TicketStatusServing           TicketStatus = "SERVING"
	TicketStatusCompleted         TicketStatus = "COMPLETED"
	TicketStatusCancelled         TicketStatus = "CANCELLED"
	TicketStatusNoShow            TicketStatus = "NO_SHOW"
	TicketStatusRejected          TicketStatus = "REJECTED"
)

// allowedTransitions is the single source of truth for the ticket state
// machine. Terminal states have no outgoing edges.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusPendingValidation: {TicketStatusWaiting, TicketStatusRejected, TicketStatusCancelled},
	TicketStatusWaiting:           {TicketStatusCalled, TicketStatusCancelled},
	TicketStatusCalled:            {TicketStatusServing, TicketStatusNoShow, TicketStatusCancelled},
	TicketStatusServing:           {TicketStatusCompleted},
	TicketStatusCompleted:         {},
	TicketStatusCancelled:         {},
	TicketStatusNoShow:            {},
	TicketStatusRejected:          {},
}

// IsTerminal reports whether the status admits no further transitions.
func (s TicketStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// IsActive reports whether a ticket in this status counts toward the
// service's queue size.
func (s TicketStatus) IsActive() bool {
	switch s {
	case TicketStatusWaiting, TicketStatusCalled, TicketStatusServing:
		return true
	}
	return false
}

// HoldsPosition reports whether a ticket in this status occupies a slot in
// the dense position ordering.
func (s TicketStatus) HoldsPosition() bool {
	return s == TicketStatusWaiting || s == TicketStatusCalled
}

// ValidTransition checks the transition table.
func ValidTransition(from, to TicketStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Ticket is one citizen's place in line for a service.
type Ticket struct {
	ID              string
	ServiceID       string
	CounterID       *string
	RequesterID     *string
	TicketNumber    string
	PositionInQueue int
	Status          TicketStatus
	CreatedAt       time.Time
	CalledAt        *time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	NoShowCount     int
	IsBlacklisted   bool
	BlacklistUntil  *time.Time
}

func (t *Ticket) transition(to TicketStatus) error {
	if !ValidTransition(t.Status, to) {
		return ErrInvalidTransition
	}
	t.Status = to
	return nil
}

// Call moves a WAITING ticket to CALLED and binds it to a counter.
func (t *Ticket) Call(counterID string, at time.Time) error {
	if err := t.transition(TicketStatusCalled); err != nil {
		return err
	}
	t.CounterID = &counterID
	t.CalledAt = &at
	return nil
}

// StartServing moves a CALLED ticket to SERVING.
func (t *Ticket) StartServing(at time.Time) error {
	if err := t.transition(TicketStatusServing); err != nil {
		return err
	}
	t.StartedAt = &at
	return nil
}

// Complete finishes a SERVING ticket.
func (t *Ticket) Complete(at time.Time) error {
	if err := t.transition(TicketStatusCompleted); err != nil {
		return err
	}
	t.CompletedAt = &at
	t.PositionInQueue = 0
	return nil
}

// Cancel aborts a ticket before it is served. Only tickets that still hold
// a queue slot (or await validation) are cancellable.
func (t *Ticket) Cancel() error {
	if t.Status != TicketStatusWaiting && t.Status != TicketStatusCalled && t.Status != TicketStatusPendingValidation {
		return ErrNotCancellable
	}
	t.Status = TicketStatusCancelled
	t.PositionInQueue = 0
	return nil
}

// MarkNoShow records that a CALLED citizen never arrived.
func (t *Ticket) MarkNoShow() error {
	if err := t.transition(TicketStatusNoShow); err != nil {
		return err
	}
	t.NoShowCount++
	t.PositionInQueue = 0
	return nil
}

// ResolveValidation settles a PENDING_VALIDATION ticket.
func (t *Ticket) ResolveValidation(approved bool) error {
	if approved {
		return t.transition(TicketStatusWaiting)
	}
	if err := t.transition(TicketStatusRejected); err != nil {
		return err
	}
	t.PositionInQueue = 0
	return nil
}
