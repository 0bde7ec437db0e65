// Package eventbus provides a same-process publish/subscribe registry.
//
// Events carry no payload. Publish calls every handler subscribed to the
// topic synchronously, in subscription order, on the publishing goroutine.
// There is no delivery guarantee beyond that.
package eventbus

import (
	"log/slog"
	"sync"
)

// Topic names an event.
type Topic string

// TopicUnauthorized is published once per expiry episode.
const TopicUnauthorized Topic = "unauthorized"

// Handler reacts to a published event.
type Handler func(Topic)

// Bus is a topic-keyed subscription registry.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Topic][]subscription
	logger   *slog.Logger
}

type subscription struct {
	id uint64
	fn Handler
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[Topic][]subscription),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn for topic and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(topic Topic, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

// Publish delivers topic to every current subscriber. A panicking handler
// is logged and does not stop delivery to the others.
func (b *Bus) Publish(topic Topic) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[topic]))
	copy(subs, b.handlers[topic])
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(topic, s.fn)
	}
}

// Subscribers returns the number of handlers registered for topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

func (b *Bus) deliver(topic Topic, fn Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"topic", string(topic),
				"panic", r,
			)
		}
	}()
	fn(topic)
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[topic]
	for i, s := range subs {
		if s.id == id {
			b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[topic]) == 0 {
		delete(b.handlers, topic)
	}
}
