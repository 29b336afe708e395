package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
)

func TestCallNextDispatchesInOrder(t *testing.T) {
	f := newQueueFixture(t, testQueueConfig())
	ctx := context.Background()
	svc := f.openService(t, ServiceCreateInput{Name: "Desk", Code: "D"})
	counter := f.openCounter(t, svc.ID, "agent-1")

	first, _, err := f.queue.RequestTicket(ctx, svc.ID, Requester{})
	require.NoError(t, err)
	_, _, err = f.queue.RequestTicket(ctx, svc.ID, Requester{})
	require.NoError(t, err)

	called, err := f.dispatch.CallNext(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, called.ID)
	assert.Equal(t, domain.TicketStatusCalled, called.Status)
	require.NotNil(t, called.CounterID)
	assert.Equal(t, counter.ID, *called.CounterID)

	bound, err := f.repo.GetCounter(ctx, counter.ID)
	require.NoError(t, err)
	require.NotNil(t, bound.CurrentTicketID)
	assert.Equal(t, first.ID, *bound.CurrentTicketID)

	// The only counter is busy now.
	_, err = f.dispatch.CallNext(ctx, svc.ID)
	require.ErrorIs(t, err, domain.ErrNoAvailableCounter)
}

func TestCallNextWithEmptyQueue(t *testing.T) {
	f := newQueueFixture(t, testQueueConfig())
	ctx := context.Background()
	svc := f.openService(t, ServiceCreateInput{Name: "Desk"})
	f.openCounter(t, svc.ID, "agent-1")

	_, err := f.dispatch.CallNext(ctx, svc.ID)
	require.ErrorIs(t, err, domain.ErrNoWaitingTicket)
}

func TestCallNextWithoutOpenCounter(t *testing.T) {
	f := newQueueFixture(t, testQueueConfig())
	ctx := context.Background()
	svc := f.openService(t, ServiceCreateInput{Name: "Desk"})

	// Counter exists but was never staffed or opened.
	_, err := f.catalog.CreateCounter(ctx, CounterCreateInput{ServiceID: svc.ID, Name: "Counter 1"})
	require.NoError(t, err)

	_, _, err = f.queue.RequestTicket(ctx, svc.ID, Requester{})
	require.NoError(t, err)

	_, err = f.dispatch.CallNext(ctx, svc.ID)
	require.ErrorIs(t, err, domain.ErrNoAvailableCounter)
}

func TestServeAndCompleteFlow(t *testing.T) {
	f := newQueueFixture(t, testQueueConfig())
	ctx := context.Background()
	svc := f.openService(t, ServiceCreateInput{Name: "Desk"})
	counter := f.openCounter(t, svc.ID, "agent-1")

	_, _, err := f.queue.RequestTicket(ctx, svc.ID, Requester{})
	require.NoError(t, err)
	second, _, err := f.queue.RequestTicket(ctx, svc.ID, Requester{})
	require.NoError(t, err)

	called, err := f.dispatch.CallNext(ctx, svc.ID)
	require.NoError(t, err)

	// Completing before service starts is invalid.
	_, err = f.dispatch.CompleteCurrent(ctx, counter.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	serving, err := f.dispatch.StartServing(ctx, counter.ID)
	require.NoError(t, err)
	assert.Equal(t, called.ID, serving.ID)
	assert.Equal(t, domain.TicketStatusServing, serving.Status)
	assert.Equal(t, 0, serving.PositionInQueue)

	// The waiting ticket moved up once service started.
	active, err := f.repo.ListActiveTickets(ctx, svc.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, ticket := range active {
		if ticket.ID == second.ID {
			assert.Equal(t, 1, ticket.PositionInQueue)
		}
	}

	done, err := f.dispatch.CompleteCurrent(ctx, counter.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, done.Status)

	current, err := f.repo.GetService(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.TotalTicketsServed)
	assert.Equal(t, 1, current.CurrentQueueSize)

	freed, err := f.repo.GetCounter(ctx, counter.ID)
	require.NoError(t, err)
	assert.Nil(t, freed.CurrentTicketID)
	assert.Equal(t, 1, freed.TicketsProcessedToday)

	// The freed counter can take the next ticket.
	next, err := f.dispatch.CallNext(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, next.ID)
}

func TestStartServingWithIdleCounter(t *testing.T) {
	f := newQueueFixture(t, testQueueConfig())
	ctx := context.Background()
	svc := f.openService(t, ServiceCreateInput{Name: "Desk"})
	counter := f.openCounter(t, svc.ID, "agent-1")

	_, err := f.dispatch.StartServing(ctx, counter.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMarkNoShowRenumbersAndFreesCounter(t *testing.T) {
	f := newQueueFixture(t, testQueueConfig())
	ctx := context.Background()
	svc := f.openService(t, ServiceCreateInput{Name: "Desk"})
	counter := f.openCounter(t, svc.ID, "agent-1")

	for i := 0; i < 3; i++ {
		_, _, err := f.queue.RequestTicket(ctx, svc.ID, Requester{})
		require.NoError(t, err)
	}

	called, err := f.dispatch.CallNext(ctx, svc.ID)
	require.NoError(t, err)

	marked, err := f.dispatch.MarkNoShow(ctx, called.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNoShow, marked.Status)
	assert.Equal(t, 1, marked.NoShowCount)

	active, err := f.repo.ListActiveTickets(ctx, svc.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 1, active[0].PositionInQueue)
	assert.Equal(t, 2, active[1].PositionInQueue)

	current, err := f.repo.GetService(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.CurrentQueueSize)

	freed, err := f.repo.GetCounter(ctx, counter.ID)
	require.NoError(t, err)
	assert.Nil(t, freed.CurrentTicketID)
	// A no-show does not count as processed work.
	assert.Equal(t, 0, freed.TicketsProcessedToday)
}

func TestMarkNoShowRequiresCalledTicket(t *testing.T) {
	f := newQueueFixture(t, testQueueConfig())
	ctx := context.Background()
	svc := f.openService(t, ServiceCreateInput{Name: "Desk"})

	ticket, _, err := f.queue.RequestTicket(ctx, svc.ID, Requester{})
	require.NoError(t, err)

	_, err = f.dispatch.MarkNoShow(ctx, ticket.ID)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRepeatedNoShowsBlacklistUser(t *testing.T) {
	cfg := testQueueConfig()
	cfg.NoShowThreshold = 2
	f := newQueueFixture(t, cfg)
	ctx := context.Background()
	svc := f.openService(t, ServiceCreateInput{Name: "Desk"})
	f.openCounter(t, svc.ID, "agent-1")

	userID := "user-1"
	for i := 0; i < 2; i++ {
		_, _, err := f.queue.RequestTicket(ctx, svc.ID, Requester{UserID: &userID})
		require.NoError(t, err)
		called, err := f.dispatch.CallNext(ctx, svc.ID)
		require.NoError(t, err)
		_, err = f.dispatch.MarkNoShow(ctx, called.ID)
		require.NoError(t, err)
	}

	until, err := f.blacklist.BlacklistedUntil(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, until)

	_, _, err = f.queue.RequestTicket(ctx, svc.ID, Requester{UserID: &userID})
	require.ErrorIs(t, err, domain.ErrBlacklisted)
}

func TestCounterAdministration(t *testing.T) {
	f := newQueueFixture(t, testQueueConfig())
	ctx := context.Background()
	svc := f.openService(t, ServiceCreateInput{Name: "Desk"})

	counter, err := f.catalog.CreateCounter(ctx, CounterCreateInput{ServiceID: svc.ID, Name: "Counter 1"})
	require.NoError(t, err)

	t.Run("open without agent stays closed", func(t *testing.T) {
		opened, err := f.dispatch.OpenCounter(ctx, counter.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CounterStatusClosed, opened.Status)
	})

	t.Run("staffed counter opens and pauses", func(t *testing.T) {
		_, err := f.dispatch.AssignAgent(ctx, counter.ID, "agent-1")
		require.NoError(t, err)
		opened, err := f.dispatch.OpenCounter(ctx, counter.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CounterStatusOpen, opened.Status)

		paused, err := f.dispatch.PauseCounter(ctx, counter.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CounterStatusPaused, paused.Status)
	})

	t.Run("busy counter refuses close and unstaffing", func(t *testing.T) {
		_, err := f.dispatch.OpenCounter(ctx, counter.ID)
		require.NoError(t, err)
		_, _, err = f.queue.RequestTicket(ctx, svc.ID, Requester{})
		require.NoError(t, err)
		_, err = f.dispatch.CallNext(ctx, svc.ID)
		require.NoError(t, err)

		_, err = f.dispatch.CloseCounter(ctx, counter.ID)
		require.ErrorIs(t, err, domain.ErrCounterBusy)
		_, err = f.dispatch.RemoveAgent(ctx, counter.ID)
		require.ErrorIs(t, err, domain.ErrCounterBusy)
	})

	t.Run("idle counter unstaffs and closes", func(t *testing.T) {
		serving, err := f.dispatch.StartServing(ctx, counter.ID)
		require.NoError(t, err)
		_, err = f.dispatch.CompleteCurrent(ctx, counter.ID)
		require.NoError(t, err)
		assert.NotNil(t, serving)

		removed, err := f.dispatch.RemoveAgent(ctx, counter.ID)
		require.NoError(t, err)
		assert.Nil(t, removed.AgentID)
		assert.Equal(t, domain.CounterStatusClosed, removed.Status)
	})
}
