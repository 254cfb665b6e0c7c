package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	placed := 0
	committed := 0
	handle := bus.SubscribeTyped(EventAgentPlaced, func(e Event) { placed++ })
	bus.SubscribeTyped(EventTroopsCommitted, func(e Event) { committed += e.Amount })

	bus.Publish(NewEvent(EventAgentPlaced, 1, 0))
	bus.Publish(NewEventWithAmount(EventTroopsCommitted, 1, 0, 3))
	assert.Equal(t, 1, placed)
	assert.Equal(t, 3, committed)

	bus.Unsubscribe(handle)
	bus.Publish(NewEvent(EventAgentPlaced, 1, 1))
	assert.Equal(t, 1, placed, "unsubscribed listener must not fire")
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus()

	var seen []EventType
	handle := bus.Subscribe(func(e Event) { seen = append(seen, e.Type) })

	bus.Publish(NewEvent(EventRoundStarted, 1, -1))
	bus.Publish(NewEvent(EventHandRevealed, 1, 0))
	bus.Publish(NewEvent(EventGameOver, 4, -1))
	assert.Equal(t, []EventType{EventRoundStarted, EventHandRevealed, EventGameOver}, seen)

	bus.Unsubscribe(handle)
	bus.Publish(NewEvent(EventRoundStarted, 2, -1))
	assert.Len(t, seen, 3)
}

func TestEventBusIgnoresNilListeners(t *testing.T) {
	bus := NewEventBus()

	assert.Equal(t, -1, bus.Subscribe(nil))
	assert.Equal(t, -1, bus.SubscribeTyped(EventGameOver, nil))
	assert.NotPanics(t, func() { bus.Publish(NewEvent(EventGameOver, 1, -1)) })
}
