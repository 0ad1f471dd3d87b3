// Package event provides the in-process notification channel between
// the simulation core and its collaborators. The bus is an explicit,
// constructed object injected into each component; subscriptions are
// released when the owning component shuts down, so no handler can
// outlive its owner.
package event

import (
	"log/slog"
	"sync"
)

// Topic identifies one notification channel on the bus.
type Topic string

const (
	// TopicEnemySpawned - pool checked an instance out for a wave
	TopicEnemySpawned Topic = "enemy-spawned"
	// TopicEnemyKilled - death state entered, fired exactly once per life
	TopicEnemyKilled Topic = "enemy-killed"
	// TopicEnemyReturned - instance reclaimed into the pool
	TopicEnemyReturned Topic = "enemy-returned"
	// TopicWaveStarted - director began a new wave
	TopicWaveStarted Topic = "wave-started"
	// TopicWaveCompleted - director finished spawning a wave
	TopicWaveCompleted Topic = "wave-completed"
)

// Event is the payload delivered to subscribers. Fields are filled
// per topic: enemy topics carry EnemyID/Archetype, wave topics carry
// WaveNumber.
type Event struct {
	Topic      Topic
	WaveNumber int
	EnemyID    uint32
	Archetype  string
}

// Handler consumes one event. Handlers run synchronously on the
// publishing tick so pool and director bookkeeping never skews across
// tick boundaries.
type Handler func(Event)

// Bus is a process-wide event dispatcher. Thread-safe.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Topic]map[int]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Topic]map[int]Handler),
	}
}

// Subscribe registers a handler for a topic and returns a subscription
// id for later removal.
func (b *Bus) Subscribe(topic Topic, handler Handler) int {
	if handler == nil {
		slog.Warn("event bus: nil handler ignored", "topic", topic)
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][id] = handler

	return id
}

// Unsubscribe removes a subscription. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(topic Topic, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handlers, ok := b.subs[topic]; ok {
		delete(handlers, id)
	}
}

// Publish delivers an event to every subscriber of its topic before
// returning. Delivery order between subscribers is not guaranteed.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Topic]))
	for _, h := range b.subs[ev.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// SubscriberCount returns the number of live subscriptions for a topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
