package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/equipment-checkout/internal/events"
)

// ActivityEntry is one line of the operator-facing activity feed.
type ActivityEntry struct {
	ID        string           `json:"id"`
	Type      events.EventType `json:"type"`
	EntityID  string           `json:"entity_id"`
	Clerk     string           `json:"clerk,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   interface{}      `json:"payload"`
}

// ActivityService keeps a bounded in-memory feed of recent events for the
// UI collaborator. It subscribes to every dispatcher event.
type ActivityService struct {
	mu      sync.RWMutex
	entries []ActivityEntry
	limit   int
	logger  *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(logger *zap.Logger, limit int) *ActivityService {
	if limit <= 0 {
		limit = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{limit: limit, logger: logger}
}

// RegisterHandlers subscribes to the dispatcher.
func (a *ActivityService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.SubscribeAll(a.handleEvent)
}

func (a *ActivityService) handleEvent(ctx context.Context, event events.Event) error {
	a.logger.Info("activity",
		zap.String("type", string(event.Type)),
		zap.String("entity_id", event.EntityID))

	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, ActivityEntry{
		ID:        event.ID,
		Type:      event.Type,
		EntityID:  event.EntityID,
		Clerk:     event.Clerk,
		Timestamp: event.Timestamp,
		Payload:   event.Payload,
	})
	if len(a.entries) > a.limit {
		a.entries = a.entries[len(a.entries)-a.limit:]
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (a *ActivityService) Recent(n int) []ActivityEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if n <= 0 || n > len(a.entries) {
		n = len(a.entries)
	}
	result := make([]ActivityEntry, 0, n)
	for i := len(a.entries) - 1; i >= len(a.entries)-n; i-- {
		result = append(result, a.entries[i])
	}
	return result
}
