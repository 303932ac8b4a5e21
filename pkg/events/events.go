package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names a class of engine event.
type EventType string

const (
	EventScenarioCreated  EventType = "scenario.created"
	EventScenarioUpdated  EventType = "scenario.updated"
	EventScenarioCloned   EventType = "scenario.cloned"
	EventScenarioPurged   EventType = "scenario.purged"
	EventScenarioLocked   EventType = "scenario.locked"
	EventScenarioUnlocked EventType = "scenario.unlocked"
	EventDatasetCreated   EventType = "dataset.created"
	EventDatasetUpdated   EventType = "dataset.updated"
	EventDataRebound      EventType = "data.rebound"
	EventGroupChanged     EventType = "group.changed"
)

const (
	publishBuffer    = 100
	subscriberBuffer = 50
)

// Event is one engine notification. Metadata carries entity ids as
// strings.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Message   string
	Metadata  map[string]string
}

// New builds an event with a fresh id and timestamp.
func New(t EventType, message string, metadata map[string]string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now(),
		Message:   message,
		Metadata:  metadata,
	}
}

// Subscriber receives events published after it subscribed. Delivery is
// best effort: a full subscriber is skipped, never waited on.
type Subscriber chan *Event

// Broker fans engine events out to subscribers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[Subscriber]struct{}
	events chan *Event
	done   chan struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs:   make(map[Subscriber]struct{}),
		events: make(chan *Event, publishBuffer),
		done:   make(chan struct{}),
	}
}

// Start launches the distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop ends distribution. Pending events are dropped.
func (b *Broker) Stop() {
	close(b.done)
}

// Subscribe registers a new subscriber channel.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, subscriberBuffer)
	b.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, sub)
	close(sub)
}

// Publish queues an event for distribution without blocking the caller
// beyond the publish buffer.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case b.events <- event:
	case <-b.done:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.events:
			b.broadcast(event)
		case <-b.done:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			// Full subscriber, skip.
		}
	}
}

// SubscriberCount reports the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
