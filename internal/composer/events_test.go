package composer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBus_PublishOrder(t *testing.T) {
	// Setup
	bus := NewBus(discardLogger())
	var got []string
	bus.SubscribeAll(func(Event) { got = append(got, "all") })
	bus.Subscribe(EventTaskStarted, func(Event) { got = append(got, "started-1") })
	bus.Subscribe(EventTaskStarted, func(Event) { got = append(got, "started-2") })
	bus.Subscribe(EventTaskFailed, func(Event) { got = append(got, "failed") })

	// Execute
	bus.Publish(Event{Type: EventTaskStarted})

	// Assert - specific handlers first, then wildcard
	assert.Equal(t, []string{"started-1", "started-2", "all"}, got)
}

func TestBus_PanicRecovered(t *testing.T) {
	// Setup
	bus := NewBus(discardLogger())
	called := false
	bus.Subscribe(EventSessionFailed, func(Event) { panic("boom") })
	bus.Subscribe(EventSessionFailed, func(Event) { called = true })

	// Execute & Assert
	assert.NotPanics(t, func() { bus.Publish(Event{Type: EventSessionFailed}) })
	assert.True(t, called, "later handlers still run")
}

func TestBus_Unsubscribe(t *testing.T) {
	// Setup
	bus := NewBus(discardLogger())
	count := 0
	id := bus.SubscribeAll(func(Event) { count++ })
	other := bus.Subscribe(EventTaskCompleted, func(Event) {})
	assert.Equal(t, 2, bus.SubscriptionCount())

	// Execute
	assert.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.Unsubscribe(id))
	bus.Publish(Event{Type: EventTaskCompleted})

	// Assert
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, bus.SubscriptionCount())
	assert.True(t, bus.Unsubscribe(other))
}
