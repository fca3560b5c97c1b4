package inventory

import (
	"log"
	"sync"
	"time"

	"facet-inventory-api/internal/model"

	"facet-inventory-api/pkg/uid"
)

// EventType names a bus event.
type EventType string

// Named events published by the manager. These form the public contract
// for anything that wants to react to inventory changes without polling.
const (
	EventInventoryLoaded     EventType = "inventory-loaded"
	EventInventoryUpdated    EventType = "inventory-updated"
	EventInventoryAlert      EventType = "inventory-alert"
	EventAlertDismissed      EventType = "alert-dismissed"
	EventStockReserved       EventType = "stock-reserved"
	EventReservationReleased EventType = "reservation-released"
	EventSubscriberAdded     EventType = "subscriber-added"
	EventSubscriberRemoved   EventType = "subscriber-removed"
)

// Event is a typed bus payload. Only the fields relevant to the event
// type are populated.
type Event struct {
	Type         EventType            `json:"type"`
	Snapshot     *model.StockSnapshot `json:"snapshot,omitempty"`
	Reservation  *model.Reservation   `json:"reservation,omitempty"`
	Alert        *model.Alert         `json:"alert,omitempty"`
	SubscriberID string               `json:"subscriber_id,omitempty"`
	At           time.Time            `json:"at"`
}

// Listener receives events. Listeners run synchronously on the emitting
// goroutine and must not block.
type Listener func(Event)

type subscription struct {
	id    string
	types map[EventType]struct{} // nil means all types
	fn    Listener
}

func (s *subscription) matches(t EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Bus is a named-event broadcaster decoupling the manager from its
// consumers. Listeners are invoked in registration order; a panicking
// listener is recovered so it cannot break delivery to the others.
type Bus struct {
	mu   sync.RWMutex
	subs []*subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener for the given event types (all types
// when none are given) and returns the subscription id.
func (b *Bus) Subscribe(fn Listener, types ...EventType) string {
	sub := &subscription{id: uid.New(), fn: fn}
	if len(types) > 0 {
		sub.types = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub.id
}

// Unsubscribe removes a subscription by id. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers the event to every matching listener in registration
// order.
func (b *Bus) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		if !sub.matches(ev.Type) {
			continue
		}
		b.deliver(sub, ev)
	}
}

func (b *Bus) deliver(sub *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Bus] listener %s panicked on %s: %v", sub.id, ev.Type, r)
		}
	}()
	sub.fn(ev)
}

// ListenerCount returns the number of registered subscriptions.
func (b *Bus) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
