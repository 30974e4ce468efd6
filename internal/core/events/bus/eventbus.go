package bus

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var ErrNilHandler = errors.New("bus: nil handler")

type simpleEvent struct {
	typ    string
	source string
	ts     time.Time
	data   any
}

func (e simpleEvent) Type() string         { return e.typ }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent stamps an event with the current time.
func NewEvent(typ, source string, data any) Event {
	return simpleEvent{typ: typ, source: source, ts: time.Now(), data: data}
}

type subscription struct {
	id        string
	topic     string
	eventType string
	handler   EventHandler
	active    atomic.Bool
	bus       *inMemoryBus
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) Topic() string     { return s.topic }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active.Load() }

func (s *subscription) Cancel() error {
	if !s.active.CompareAndSwap(true, false) {
		return nil
	}
	s.bus.remove(s)
	return nil
}

type inMemoryBus struct {
	mu sync.RWMutex
	// topic -> event type -> subscriptions in subscribe order
	handlers map[string]map[string][]*subscription
}

// New returns an empty in-memory EventBus.
func New() EventBus {
	return &inMemoryBus{handlers: make(map[string]map[string][]*subscription)}
}

func (b *inMemoryBus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

func (b *inMemoryBus) SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	s := &subscription{id: uuid.NewString(), topic: topic, eventType: eventType, handler: handler, bus: b}
	s.active.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()
	types := b.handlers[topic]
	if types == nil {
		types = make(map[string][]*subscription)
		b.handlers[topic] = types
	}
	types[eventType] = append(types[eventType], s)
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := b.handlers[s.topic]
	if types == nil {
		return
	}
	types[s.eventType] = slices.DeleteFunc(types[s.eventType], func(x *subscription) bool { return x == s })
}

func (b *inMemoryBus) deliver(topic string, event Event) error {
	if event == nil {
		return nil
	}
	b.mu.RLock()
	var subs []*subscription
	if types := b.handlers[topic]; types != nil {
		subs = append(subs, types[event.Type()]...)
		if event.Type() != Wildcard {
			subs = append(subs, types[Wildcard]...)
		}
	}
	b.mu.RUnlock()

	var all error
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}
