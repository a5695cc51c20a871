package composer

import (
	"log/slog"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/runoshun/ghostwriter/internal/domain"
)

// EventType names a session or task transition.
type EventType string

// Event types. Every session and task status change publishes exactly one event.
const (
	EventSessionPlanning  EventType = "session.planning"
	EventSessionExecuting EventType = "session.executing"
	EventSessionCompleted EventType = "session.completed"
	EventSessionFailed    EventType = "session.failed"
	EventSessionRejected  EventType = "session.rejected"
	EventTaskStarted      EventType = "task.started"
	EventTaskCompleted    EventType = "task.completed"
	EventTaskFailed       EventType = "task.failed"
)

// wildcard is the subscription key for handlers that receive every event.
const wildcard EventType = "*"

// Event carries snapshots taken at publication time; handlers may keep them.
// Fields are ordered to minimize memory padding.
type Event struct {
	Session *domain.ComposerSession
	Task    *domain.ComposerTask // Set for task events
	Err     error                // Failure cause for failed events
	Type    EventType
	Index   int // Task position in the plan, -1 for session events
}

// Handler handles an event.
type Handler func(Event)

type subscription struct {
	handler Handler
	id      string
}

// Bus is a synchronous pub-sub event bus. Handlers run on the publishing goroutine
// in registration order; a panicking handler is logged and skipped.
type Bus struct {
	logger        *slog.Logger
	subscriptions map[EventType][]subscription
	nextID        atomic.Uint64
	mu            sync.RWMutex
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger:        logger,
		subscriptions: make(map[EventType][]subscription),
	}
}

// Subscribe registers a handler for one event type and returns its subscription ID.
func (b *Bus) Subscribe(t EventType, h Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := "sub-" + strconv.FormatUint(b.nextID.Add(1), 10)
	b.subscriptions[t] = append(b.subscriptions[t], subscription{id: id, handler: h})
	return id
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) string {
	return b.Subscribe(wildcard, h)
}

// Unsubscribe removes a subscription. Returns false if the ID is unknown.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[t] = append(subs[:i:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Publish dispatches ev to handlers of its type, then to wildcard handlers.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	specific := append([]subscription(nil), b.subscriptions[ev.Type]...)
	all := append([]subscription(nil), b.subscriptions[wildcard]...)
	b.mu.RUnlock()

	for _, sub := range specific {
		b.safeCall(sub.handler, ev)
	}
	for _, sub := range all {
		b.safeCall(sub.handler, ev)
	}
}

// SubscriptionCount returns the number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, subs := range b.subscriptions {
		n += len(subs)
	}
	return n
}

func (b *Bus) safeCall(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", string(ev.Type), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	h(ev)
}
