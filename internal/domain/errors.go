package domain

import "errors"

// Sentinel errors grouped by how callers are expected to react:
// validation errors are rejected outright, capacity errors may be retried
// later by the caller, policy errors are user-visible denials, and
// ErrConflict surfaces only after internal retries are exhausted.
var (
	// Validation
	ErrServiceNotFound   = errors.New("service not found")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrCounterNotFound   = errors.New("counter not found")
	ErrInvalidTransition = errors.New("invalid ticket transition")
	ErrInvalidState      = errors.New("entity in invalid state for operation")

	// Capacity
	ErrQueueFull          = errors.New("service queue is full")
	ErrNoWaitingTicket    = errors.New("no waiting ticket")
	ErrNoAvailableCounter = errors.New("no available counter")
	ErrCounterBusy        = errors.New("counter has an active ticket")

	// Policy
	ErrServiceUnavailable = errors.New("service not accepting tickets")
	ErrBlacklisted        = errors.New("requester is blacklisted")
	ErrForbidden          = errors.New("action forbidden")
	ErrNotCancellable     = errors.New("ticket cannot be cancelled")

	// Consistency
	ErrConflict = errors.New("concurrent modification conflict")
)
