package bus

import "time"

// Well-known topics used by the simulation.
const (
	// TopicFrames carries one frame snapshot per simulation tick.
	TopicFrames = "frames"
	// TopicAgents carries notifications raised by agent behaviours.
	TopicAgents = "agents"
)

// Wildcard subscribes to every event type within a topic.
const Wildcard = "*"

// EventBus is an in-process pub/sub bus.
//
// Handlers subscribe by event type within a topic. PublishToTopic runs
// handlers synchronously in the caller goroutine, in the order they
// subscribed, and joins their errors. Handlers must not publish to the bus
// recursively while holding their own locks.
type EventBus interface {
	// PublishToTopic delivers to subscribers of event.Type() in topic.
	PublishToTopic(topic string, event Event) error

	// SubscribeTopic registers handler for eventType in topic. Wildcard
	// matches every type.
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is ignored.
	Unsubscribe(sub Subscription) error
}

// Event is a read-only message on the bus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type EventHandler func(event Event) error

// Subscription is a registered handler.
type Subscription interface {
	ID() string
	Topic() string
	EventType() string
	IsActive() bool
	// Cancel removes the handler. Repeated calls are no-ops.
	Cancel() error
}
