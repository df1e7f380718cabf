package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/equipment-checkout/internal/events"
)

func TestActivityService_CollectsPublishedEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	activity := NewActivityService(nil, 0)
	activity.RegisterHandlers(dispatcher)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		ID:        "evt-1",
		Type:      events.EventAssetCheckedOut,
		EntityID:  "WV100",
		Clerk:     "clerk-1",
		Timestamp: time.Now(),
	}))

	recent := activity.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, events.EventAssetCheckedOut, recent[0].Type)
	assert.Equal(t, "WV100", recent[0].EntityID)
}

func TestActivityService_NewestFirstAndBounded(t *testing.T) {
	activity := NewActivityService(nil, 3)
	dispatcher := events.NewInMemoryDispatcher()
	activity.RegisterHandlers(dispatcher)

	for i := 0; i < 5; i++ {
		require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
			ID:       fmt.Sprintf("evt-%d", i),
			Type:     events.EventScanStateChanged,
			EntityID: fmt.Sprintf("session-%d", i),
		}))
	}

	recent := activity.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "evt-4", recent[0].ID)
	assert.Equal(t, "evt-2", recent[2].ID)
}

func TestActivityService_RecentLimitsResult(t *testing.T) {
	activity := NewActivityService(nil, 10)
	dispatcher := events.NewInMemoryDispatcher()
	activity.RegisterHandlers(dispatcher)

	for i := 0; i < 5; i++ {
		require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
			ID:   fmt.Sprintf("evt-%d", i),
			Type: events.EventScanStateChanged,
		}))
	}

	assert.Len(t, activity.Recent(2), 2)
	assert.Len(t, activity.Recent(0), 5)
}
