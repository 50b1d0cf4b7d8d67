package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ensiproject/ensi/internal/game/core"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	received := false
	var receivedEvent Event

	bus.SubscribeFunc(TypeGameStarted, func(e Event) {
		received = true
		receivedEvent = e
	})

	event := NewGameStartedEvent("test-game", 4, 20, 20, 42)
	bus.Publish(event)

	assert.True(t, received, "Event handler should have been called")
	assert.NotNil(t, receivedEvent, "Event should have been received")
	assert.Equal(t, TypeGameStarted, receivedEvent.Type())
	assert.Equal(t, "test-game", receivedEvent.GameID())
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()

	handler1Called := false
	handler2Called := false

	bus.SubscribeFunc(TypeTurnStarted, func(e Event) {
		handler1Called = true
	})

	bus.SubscribeFunc(TypeTurnStarted, func(e Event) {
		handler2Called = true
	})

	event := NewTurnStartedEvent("test-game", 1)
	bus.Publish(event)

	assert.True(t, handler1Called, "Handler 1 should have been called")
	assert.True(t, handler2Called, "Handler 2 should have been called")
}

// TestSubscriber is a test implementation of Subscriber.
type TestSubscriber struct {
	id              string
	interestedTypes map[string]bool
	receivedEvents  []Event
}

func (ts *TestSubscriber) ID() string {
	return ts.id
}

func (ts *TestSubscriber) HandleEvent(e Event) {
	ts.receivedEvents = append(ts.receivedEvents, e)
}

func (ts *TestSubscriber) InterestedIn(eventType string) bool {
	if ts.interestedTypes == nil {
		return true
	}
	return ts.interestedTypes[eventType]
}

func TestEventBusSubscriber(t *testing.T) {
	bus := NewEventBus()

	subscriber := &TestSubscriber{
		id: "test-subscriber",
		interestedTypes: map[string]bool{
			TypeGameStarted: true,
			TypeGameEnded:   true,
		},
		receivedEvents: []Event{},
	}

	bus.Subscribe(subscriber)

	bus.Publish(NewGameStartedEvent("test-game", 2, 10, 10, 1))
	bus.Publish(NewTurnStartedEvent("test-game", 1))
	bus.Publish(NewGameEndedEvent("test-game", core.PlayerID(0), true, "domination", 100, time.Minute))

	assert.Len(t, subscriber.receivedEvents, 2)
	assert.Equal(t, TypeGameStarted, subscriber.receivedEvents[0].Type())
	assert.Equal(t, TypeGameEnded, subscriber.receivedEvents[1].Type())

	bus.Unsubscribe(subscriber.ID())
	bus.Publish(NewGameStartedEvent("test-game", 2, 10, 10, 1))

	assert.Len(t, subscriber.receivedEvents, 2)
}
