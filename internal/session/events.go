package session

import (
	"sync"
	"time"

	"github.com/gitgenie/gitgenie/internal/db"
	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/google/uuid"
)

type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventSignedOut      EventType = "SIGNED_OUT"
)

// Event describes a session-change notification. Session and Identity are
// nil for SIGNED_OUT.
type Event struct {
	ID        string
	Type      EventType
	Session   *Session
	Identity  *db.GithubUserInfo
	Timestamp time.Time
}

const subscriberBuffer = 16

type eventBus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]chan Event)}
}

// subscribe registers a new subscriber channel and returns it together with
// an unsubscribe function. Unsubscribe is idempotent.
func (b *eventBus) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	logger.Debug("Session event subscriber registered", "subscriber_id", id, "total", len(b.subs))

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, unsubscribe
}

// publish delivers the event to every subscriber without blocking. A
// subscriber with a full buffer misses the event; the next lookup will
// converge state, so dropping is safe.
func (b *eventBus) publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			logger.Warn("Dropping session event for slow subscriber", "subscriber_id", id, "event_type", string(event.Type))
		}
	}

	logger.Debug("Session event published", "event_id", event.ID, "event_type", string(event.Type))
}

func (b *eventBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
