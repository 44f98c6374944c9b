// Package eventbus carries in-process events from the request path to
// background consumers such as the metrics collector. Delivery never
// blocks the publisher: a subscriber whose buffer is full misses the event.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event = any

// EventBus is a publish/subscribe bus for untyped events.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// DefaultBuffer is the per-subscriber channel capacity of New.
const DefaultBuffer = 64

// New creates an untyped bus.
func New() *TypedBus[Event] { return NewTypedBuffered[Event](DefaultBuffer) }
