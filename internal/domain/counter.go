package domain

import "time"

// CounterStatus enumerates operating states for a dispatch counter.
type CounterStatus string

const (
	CounterStatusOpen   CounterStatus = "OPEN"
	CounterStatusClosed CounterStatus = "CLOSED"
	CounterStatusPaused CounterStatus = "PAUSED"
)

// Counter is a staffed dispatch unit bound to a service. It holds at most
// one active ticket; a non-nil CurrentTicketID implies that ticket is
// CALLED or SERVING and bound to this counter.
type Counter struct {
	ID                    string
	ServiceID             string
	Name                  string
	Status                CounterStatus
	AgentID               *string
	CurrentTicketID       *string
	TicketsProcessedToday int
	TicketsProcessedTotal int
	MaxTicketsPerDay      int // 0 means uncapped
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Open activates the counter. Without an assigned agent this is a no-op
// and the counter stays CLOSED.
func (c *Counter) Open() {
	if c.AgentID == nil {
		return
	}
	c.Status = CounterStatusOpen
}

// Close deactivates the counter.
func (c *Counter) Close() {
	c.Status = CounterStatusClosed
}

// Pause suspends dispatching without closing the counter.
func (c *Counter) Pause() {
	if c.Status == CounterStatusOpen {
		c.Status = CounterStatusPaused
	}
}

// IsAvailable reports whether the counter can receive the next ticket.
func (c *Counter) IsAvailable() bool {
	if c.Status != CounterStatusOpen || c.AgentID == nil || c.CurrentTicketID != nil {
		return false
	}
	if c.MaxTicketsPerDay > 0 && c.TicketsProcessedToday >= c.MaxTicketsPerDay {
		return false
	}
	return true
}

// Bind attaches a ticket to the counter.
func (c *Counter) Bind(ticketID string) error {
	if c.CurrentTicketID != nil {
		return ErrCounterBusy
	}
	c.CurrentTicketID = &ticketID
	return nil
}

// Release frees the counter after its ticket leaves, bumping processed
// counts when the ticket was served to completion.
func (c *Counter) Release(served bool) {
	c.CurrentTicketID = nil
	if served {
		c.TicketsProcessedToday++
		c.TicketsProcessedTotal++
	}
}

// AssignAgent staffs the counter.
func (c *Counter) AssignAgent(agentID string) {
	c.AgentID = &agentID
}

// RemoveAgent unstaffs and force-closes the counter. Fails while a ticket
// is still bound.
func (c *Counter) RemoveAgent() error {
	if c.CurrentTicketID != nil {
		return ErrCounterBusy
	}
	c.AgentID = nil
	c.Status = CounterStatusClosed
	return nil
}

// ResetDailyStats clears per-day counters; invoked by an external trigger,
// not by this core.
func (c *Counter) ResetDailyStats() {
	c.TicketsProcessedToday = 0
}
