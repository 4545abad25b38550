// pkg/event/event.go
package event

import (
	"sync"
	"time"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	OrderSubmitted    Type = "order_submitted"
	OrderRejected     Type = "order_rejected"
	OrderPreparing    Type = "order_preparing"
	OrderExecuting    Type = "order_executing"
	OrderCompleted    Type = "order_completed"
	OrdersCleared     Type = "orders_cleared"
	SimulationStarted Type = "simulation_started"
	SimulationReset   Type = "simulation_reset"
	SimulationPaused  Type = "simulation_paused"
	SimulationResumed Type = "simulation_resumed"
	TargetReached     Type = "target_reached"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler. Cancel removes it from the bus.
type Subscription struct {
	ID     uint64
	Type   Type
	Cancel func()
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run synchronously
// on the publishing goroutine, in subscription order.
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})

	return &Subscription{
		ID:   id,
		Type: eventType,
		Cancel: func() {
			b.Unsubscribe(eventType, id)
		},
	}
}

// Unsubscribe removes the handler registered under id. Unknown ids are ignored.
func (b *Bus) Unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[eventType]
	for i, r := range regs {
		if r.id == id {
			kept := make([]registration, 0, len(regs)-1)
			kept = append(kept, regs[:i]...)
			kept = append(kept, regs[i+1:]...)
			b.handlers[eventType] = kept
			return
		}
	}
}

// Publish sends an event to all subscribed handlers. A nil bus drops the event.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	regs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, r := range regs {
		r.handler(event)
	}
}

// OrderEvent describes a scheduler transition for one command
type OrderEvent struct {
	BaseEvent
	CommandID   string
	Kind        string
	Duration    time.Duration
	Preparation time.Duration
	At          time.Duration // simulation time of the transition
	Reason      string        // set on rejections
}

// NewOrderEvent creates a new order event
func NewOrderEvent(eventType Type, source interface{}, commandID, kind string, duration, preparation, at time.Duration) *OrderEvent {
	return &OrderEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		CommandID:   commandID,
		Kind:        kind,
		Duration:    duration,
		Preparation: preparation,
		At:          at,
	}
}

// TargetEvent is published when the vessel reaches the target
type TargetEvent struct {
	BaseEvent
	VesselID uint64
	Elapsed  time.Duration
}

// NewTargetEvent creates a new target event
func NewTargetEvent(source interface{}, vesselID uint64, elapsed time.Duration) *TargetEvent {
	return &TargetEvent{
		BaseEvent: BaseEvent{
			EventType: TargetReached,
			Source:    source,
		},
		VesselID: vesselID,
		Elapsed:  elapsed,
	}
}
