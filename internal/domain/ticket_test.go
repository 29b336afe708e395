package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTransition(t *testing.T) {
	allowed := []struct{ from, to TicketStatus }{
		{TicketStatusPendingValidation, TicketStatusWaiting},
		{TicketStatusPendingValidation, TicketStatusRejected},
		{TicketStatusPendingValidation, TicketStatusCancelled},
		{TicketStatusWaiting, TicketStatusCalled},
		{TicketStatusWaiting, TicketStatusCancelled},
		{TicketStatusCalled, TicketStatusServing},
		{TicketStatusCalled, TicketStatusNoShow},
		{TicketStatusCalled, TicketStatusCancelled},
		{TicketStatusServing, TicketStatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, ValidTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	forbidden := []struct{ from, to TicketStatus }{
		{TicketStatusWaiting, TicketStatusServing},
		{TicketStatusWaiting, TicketStatusNoShow},
		{TicketStatusServing, TicketStatusCancelled},
		{TicketStatusServing, TicketStatusNoShow},
		{TicketStatusCompleted, TicketStatusWaiting},
		{TicketStatusCancelled, TicketStatusWaiting},
		{TicketStatusNoShow, TicketStatusCalled},
		{TicketStatusRejected, TicketStatusWaiting},
		{TicketStatusPendingValidation, TicketStatusCalled},
	}
	for _, tc := range forbidden {
		assert.False(t, ValidTransition(tc.from, tc.to), "%s -> %s should be forbidden", tc.from, tc.to)
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, status := range []TicketStatus{TicketStatusCompleted, TicketStatusCancelled, TicketStatusNoShow, TicketStatusRejected} {
		assert.True(t, status.IsTerminal(), "%s", status)
		assert.False(t, status.IsActive(), "%s", status)
		assert.False(t, status.HoldsPosition(), "%s", status)
	}

	assert.True(t, TicketStatusWaiting.IsActive())
	assert.True(t, TicketStatusCalled.IsActive())
	assert.True(t, TicketStatusServing.IsActive())
	assert.False(t, TicketStatusPendingValidation.IsActive())

	assert.True(t, TicketStatusWaiting.HoldsPosition())
	assert.True(t, TicketStatusCalled.HoldsPosition())
	assert.False(t, TicketStatusServing.HoldsPosition())
}

func TestTicketLifecycle(t *testing.T) {
	now := time.Now()

	t.Run("full happy path", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusWaiting, PositionInQueue: 1}

		require.NoError(t, ticket.Call("counter-1", now))
		assert.Equal(t, TicketStatusCalled, ticket.Status)
		require.NotNil(t, ticket.CounterID)
		assert.Equal(t, "counter-1", *ticket.CounterID)
		require.NotNil(t, ticket.CalledAt)

		require.NoError(t, ticket.StartServing(now))
		assert.Equal(t, TicketStatusServing, ticket.Status)

		require.NoError(t, ticket.Complete(now))
		assert.Equal(t, TicketStatusCompleted, ticket.Status)
		assert.Equal(t, 0, ticket.PositionInQueue)
		require.NotNil(t, ticket.CompletedAt)
	})

	t.Run("serving cannot be cancelled", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusServing}
		require.ErrorIs(t, ticket.Cancel(), ErrNotCancellable)
	})

	t.Run("waiting cancels cleanly", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusWaiting, PositionInQueue: 4}
		require.NoError(t, ticket.Cancel())
		assert.Equal(t, TicketStatusCancelled, ticket.Status)
		assert.Equal(t, 0, ticket.PositionInQueue)
	})

	t.Run("no-show only from called", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusWaiting}
		require.ErrorIs(t, ticket.MarkNoShow(), ErrInvalidTransition)

		ticket.Status = TicketStatusCalled
		require.NoError(t, ticket.MarkNoShow())
		assert.Equal(t, TicketStatusNoShow, ticket.Status)
		assert.Equal(t, 1, ticket.NoShowCount)
	})

	t.Run("validation approval enters the queue", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusPendingValidation}
		require.NoError(t, ticket.ResolveValidation(true))
		assert.Equal(t, TicketStatusWaiting, ticket.Status)
	})

	t.Run("validation rejection terminates", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusPendingValidation}
		require.NoError(t, ticket.ResolveValidation(false))
		assert.Equal(t, TicketStatusRejected, ticket.Status)
		assert.True(t, ticket.Status.IsTerminal())
	})

	t.Run("serving must come after call", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusWaiting}
		require.ErrorIs(t, ticket.StartServing(now), ErrInvalidTransition)
	})
}
