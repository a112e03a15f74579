package streaming

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

// seenTTL bounds how long a locally published event id is remembered so the
// NATS echo of it is not delivered twice
const seenTTL = 2 * time.Minute

type subscriber struct {
	ch  chan *Event
	sub *Subscription
}

// EventBus fans household events out to local listeners (WebSocket clients)
// and, when configured, to NATS for other instances and consumers
type EventBus struct {
	nats   *NATSPublisher
	seen   *gocache.Cache
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[uint64]*subscriber
	nextID      uint64
	closed      bool
}

// NewEventBus creates a new event bus; nats may be nil
func NewEventBus(nats *NATSPublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:        nats,
		seen:        gocache.New(seenTTL, 0),
		logger:      log.WithComponent("event-bus"),
		subscribers: make(map[uint64]*subscriber),
	}
}

// PublishEntityFlagged announces a newly remembered fraud identifier
func (eb *EventBus) PublishEntityFlagged(ctx context.Context, profileID string, entity models.FlaggedEntity) error {
	return eb.Publish(ctx, NewEntityFlaggedEvent(profileID, entity))
}

// PublishApproval announces a created or resolved approval request
func (eb *EventBus) PublishApproval(ctx context.Context, req *models.FamilyApprovalRequest) error {
	return eb.Publish(ctx, NewApprovalEvent(req))
}

// Publish broadcasts locally, then forwards to NATS. Only the NATS error is
// returned; local delivery never fails.
func (eb *EventBus) Publish(ctx context.Context, event *Event) error {
	eb.seen.SetDefault(event.ID, struct{}{})
	eb.broadcast(event)

	if eb.nats == nil {
		return nil
	}
	return eb.nats.Publish(ctx, event)
}

// Run relays events published by other instances until ctx is done
func (eb *EventBus) Run(ctx context.Context) {
	if eb.nats == nil {
		return
	}
	remote, err := eb.nats.Subscribe(ctx, nil)
	if err != nil {
		eb.logger.Warn().Err(err).Msg("failed to subscribe to NATS, local events only")
		return
	}
	for event := range remote {
		if _, ok := eb.seen.Get(event.ID); ok {
			continue
		}
		eb.broadcast(event)
	}
}

func (eb *EventBus) broadcast(event *Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, s := range eb.subscribers {
		if !s.sub.Matches(event) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			eb.logger.Debug().Uint64("subscriber", id).Msg("subscriber channel full, dropping event")
		}
	}
}

// Subscribe registers a listener. The returned func unsubscribes and closes
// the channel; it is safe to call more than once.
func (eb *EventBus) Subscribe(sub *Subscription) (<-chan *Event, func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan *Event, 64)
	if eb.closed {
		close(ch)
		return ch, func() {}
	}

	eb.nextID++
	id := eb.nextID
	eb.subscribers[id] = &subscriber{ch: ch, sub: sub}

	unsubscribe := func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		if s, ok := eb.subscribers[id]; ok {
			close(s.ch)
			delete(eb.subscribers, id)
		}
	}
	return ch, unsubscribe
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// Close drops every subscriber and the NATS connection
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for id, s := range eb.subscribers {
		close(s.ch)
		delete(eb.subscribers, id)
	}
	eb.closed = true

	if eb.nats != nil {
		eb.nats.Close()
	}
}
