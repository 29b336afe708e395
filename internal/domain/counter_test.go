package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterOpenRequiresAgent(t *testing.T) {
	counter := &Counter{Status: CounterStatusClosed}
	counter.Open()
	assert.Equal(t, CounterStatusClosed, counter.Status)

	counter.AssignAgent("agent-1")
	counter.Open()
	assert.Equal(t, CounterStatusOpen, counter.Status)
}

func TestCounterIsAvailable(t *testing.T) {
	agent := "agent-1"
	ticket := "ticket-1"

	tests := []struct {
		name    string
		counter Counter
		want    bool
	}{
		{"open and staffed", Counter{Status: CounterStatusOpen, AgentID: &agent}, true},
		{"closed", Counter{Status: CounterStatusClosed, AgentID: &agent}, false},
		{"paused", Counter{Status: CounterStatusPaused, AgentID: &agent}, false},
		{"unstaffed", Counter{Status: CounterStatusOpen}, false},
		{"busy", Counter{Status: CounterStatusOpen, AgentID: &agent, CurrentTicketID: &ticket}, false},
		{"daily cap reached", Counter{Status: CounterStatusOpen, AgentID: &agent, MaxTicketsPerDay: 5, TicketsProcessedToday: 5}, false},
		{"under daily cap", Counter{Status: CounterStatusOpen, AgentID: &agent, MaxTicketsPerDay: 5, TicketsProcessedToday: 4}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.counter.IsAvailable())
		})
	}
}

func TestCounterBindRelease(t *testing.T) {
	agent := "agent-1"
	counter := &Counter{Status: CounterStatusOpen, AgentID: &agent}

	require.NoError(t, counter.Bind("ticket-1"))
	require.ErrorIs(t, counter.Bind("ticket-2"), ErrCounterBusy)

	counter.Release(true)
	assert.Nil(t, counter.CurrentTicketID)
	assert.Equal(t, 1, counter.TicketsProcessedToday)
	assert.Equal(t, 1, counter.TicketsProcessedTotal)

	// A no-show release does not count as processed.
	require.NoError(t, counter.Bind("ticket-2"))
	counter.Release(false)
	assert.Equal(t, 1, counter.TicketsProcessedToday)
}

func TestCounterRemoveAgent(t *testing.T) {
	agent := "agent-1"
	ticket := "ticket-1"

	t.Run("busy counter refuses", func(t *testing.T) {
		counter := &Counter{Status: CounterStatusOpen, AgentID: &agent, CurrentTicketID: &ticket}
		require.ErrorIs(t, counter.RemoveAgent(), ErrCounterBusy)
	})

	t.Run("idle counter force-closes", func(t *testing.T) {
		counter := &Counter{Status: CounterStatusOpen, AgentID: &agent}
		require.NoError(t, counter.RemoveAgent())
		assert.Nil(t, counter.AgentID)
		assert.Equal(t, CounterStatusClosed, counter.Status)
	})
}

func TestCounterResetDailyStats(t *testing.T) {
	counter := &Counter{TicketsProcessedToday: 7, TicketsProcessedTotal: 40}
	counter.ResetDailyStats()
	assert.Equal(t, 0, counter.TicketsProcessedToday)
	assert.Equal(t, 40, counter.TicketsProcessedTotal)
}
