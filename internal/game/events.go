package game

import (
	"sync"
	"time"
)

// EventType indicates the category of a game event.
type EventType string

const (
	// EventRunningToggled fires when the clock is started or paused.
	EventRunningToggled EventType = "RUNNING_TOGGLED"

	// EventTurnSwitched fires when the turn is handed to another player.
	EventTurnSwitched EventType = "TURN_SWITCHED"

	// EventTurnReset fires when the current turn is restarted.
	EventTurnReset EventType = "TURN_RESET"

	// EventReserveEntered fires when the active player's turn budget runs
	// out and they start spending reserve time.
	EventReserveEntered EventType = "RESERVE_ENTERED"

	// EventPlayerEliminated fires when a player's reserve reaches zero while
	// they are active and on reserve. At most once per player; the clock is
	// stopped in the same update.
	EventPlayerEliminated EventType = "PLAYER_ELIMINATED"
)

// Event describes a state transition that subscribers may react to.
type Event struct {
	Type   EventType
	GameID string

	// PlayerIndex is the player the event concerns: the eliminated player,
	// the incoming player of a turn switch, or the active player otherwise.
	PlayerIndex int

	// Running is the clock state after the transition.
	Running bool

	Timestamp time.Time
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type typedListener struct {
	handle    int
	eventType EventType
	callback  func(Event)
}

// EventBus is a synchronous publish/subscribe bus with optional type
// filtering. Delivery happens inside the publishing call, so a subscriber
// observes the transition before the operation that caused it returns.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]typedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]typedListener),
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
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], typedListener{
		handle:    handle,
		eventType: eventType,
		callback:  callback,
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
			if listeners[i].handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	for _, listener := range bus.typedListeners[event.Type] {
		listener.callback(event)
	}
}
