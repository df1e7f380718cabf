package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_TypedAndCatchAllDelivery(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var typed, all int
	dispatcher.Subscribe(EventAssetCheckedOut, func(ctx context.Context, event Event) error {
		typed++
		return nil
	})
	dispatcher.SubscribeAll(func(ctx context.Context, event Event) error {
		all++
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventAssetCheckedOut}))
	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventAssetReturned}))

	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, all)
}

func TestDispatcher_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var second bool
	dispatcher.Subscribe(EventAssetReturned, func(ctx context.Context, event Event) error {
		return boom
	})
	dispatcher.Subscribe(EventAssetReturned, func(ctx context.Context, event Event) error {
		second = true
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventAssetReturned})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, second)
}
