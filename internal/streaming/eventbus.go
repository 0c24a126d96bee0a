package streaming

import (
	"context"
	"fmt"
	"sync"

	"safesphere/pkg/logger"
)

// RemotePublisher forwards events to a broker
type RemotePublisher interface {
	PublishScanEvent(ctx context.Context, event *ScanEvent) error
	IsConnected() bool
	Close()
}

var _ RemotePublisher = (*NATSPublisher)(nil)

// EventBus distributes scan events to local subscribers and, when present, to NATS
type EventBus struct {
	remote RemotePublisher
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[string]*subscriber
	nextID      int
	closed      bool
}

type subscriber struct {
	ch  chan *ScanEvent
	sub *Subscription
}

// NewEventBus creates a new event bus. remote may be nil.
func NewEventBus(remote RemotePublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		remote:      remote,
		logger:      log.WithComponent("event-bus"),
		subscribers: make(map[string]*subscriber),
	}
}

// Publish sends an event to NATS if available and to all matching local subscribers.
// Broker failures are logged; local delivery never blocks.
func (eb *EventBus) Publish(ctx context.Context, event *ScanEvent) error {
	if eb.remote != nil && eb.remote.IsConnected() {
		if err := eb.remote.PublishScanEvent(ctx, event); err != nil {
			eb.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish to NATS, using local broadcast only")
		}
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, s := range eb.subscribers {
		if !s.sub.Matches(event) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			eb.logger.Debug().Str("subscriber", id).Msg("subscriber channel full, dropping event")
		}
	}

	return nil
}

// Subscribe registers a local subscriber and returns its channel and an unsubscribe func
func (eb *EventBus) Subscribe(sub *Subscription) (<-chan *ScanEvent, func()) {
	eb.mu.Lock()
	eb.nextID++
	id := fmt.Sprintf("sub-%d", eb.nextID)
	s := &subscriber{ch: make(chan *ScanEvent, 100), sub: sub}
	if eb.closed {
		close(s.ch)
	} else {
		eb.subscribers[id] = s
	}
	eb.mu.Unlock()

	eb.logger.Debug().Str("subscriber_id", id).Msg("new subscriber")

	unsubscribe := func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		if _, ok := eb.subscribers[id]; ok {
			close(s.ch)
			delete(eb.subscribers, id)
			eb.logger.Debug().Str("subscriber_id", id).Msg("subscriber removed")
		}
	}

	return s.ch, unsubscribe
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// Close closes all subscriber channels and the broker connection
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.closed = true
	for id, s := range eb.subscribers {
		close(s.ch)
		delete(eb.subscribers, id)
	}

	if eb.remote != nil {
		eb.remote.Close()
	}
}
