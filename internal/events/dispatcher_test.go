package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversInSubscriptionOrder(t *testing.T) {
	d := NewInMemoryDispatcher()

	var seen []string
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		seen = append(seen, "first")
		return nil
	})
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		seen = append(seen, "second")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestDispatcherFailingHandlerDoesNotStarveOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	boom := errors.New("boom")
	var delivered bool
	d.Subscribe(EventQueueUpdated, func(ctx context.Context, e Event) error {
		return boom
	})
	d.Subscribe(EventQueueUpdated, func(ctx context.Context, e Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventQueueUpdated})
	require.ErrorIs(t, err, boom)
	assert.True(t, delivered)
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCalled}))
}
