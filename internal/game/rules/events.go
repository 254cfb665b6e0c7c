package rules

import (
	"sync"
)

// EventType indicates the category of a game event.
type EventType string

const (
	EventGameStarted      EventType = "GAME_STARTED"
	EventRoundStarted     EventType = "ROUND_STARTED"
	EventPhaseChanged     EventType = "PHASE_CHANGED"
	EventTurnStarted      EventType = "TURN_STARTED"
	EventAgentPlaced      EventType = "AGENT_PLACED"
	EventHandRevealed     EventType = "HAND_REVEALED"
	EventCardAcquired     EventType = "CARD_ACQUIRED"
	EventCardTrashed      EventType = "CARD_TRASHED"
	EventTroopsRecruited  EventType = "TROOPS_RECRUITED"
	EventTroopsCommitted  EventType = "TROOPS_COMMITTED"
	EventIntriguePlayed   EventType = "INTRIGUE_PLAYED"
	EventInfluenceChanged EventType = "INFLUENCE_CHANGED"
	EventAllianceChanged  EventType = "ALLIANCE_CHANGED"
	EventDecisionPending  EventType = "DECISION_PENDING"
	EventDecisionResolved EventType = "DECISION_RESOLVED"
	EventConflictResolved EventType = "CONFLICT_RESOLVED"
	EventVictoryPoints    EventType = "VICTORY_POINTS"
	EventGameOver         EventType = "GAME_OVER"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type     EventType
	Round    int
	PlayerID int // -1 when the event is not tied to a seat
	CardID   string
	Location string
	Amount   int
	Data     string
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
// Listeners must not publish from inside the callback.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.Callback(event)
	}
}

// NewEvent creates an event for a seat in the given round.
func NewEvent(eventType EventType, round, playerID int) Event {
	return Event{Type: eventType, Round: round, PlayerID: playerID}
}

// NewEventWithAmount creates an event carrying a numeric value.
func NewEventWithAmount(eventType EventType, round, playerID, amount int) Event {
	evt := NewEvent(eventType, round, playerID)
	evt.Amount = amount
	return evt
}
