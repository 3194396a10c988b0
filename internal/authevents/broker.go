package authevents

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Event types.
const (
	TypeAuthStateChanged = "authStateChanged"
	TypeTokenExpired     = "tokenExpired"
)

// Auth states carried by authStateChanged events.
const (
	StateLoggedIn  = "login"
	StateLoggedOut = "logout"
)

const subscriberBuffer = 16

// ErrClosed is returned by Subscribe once the broker has shut down.
var ErrClosed = errors.New("auth event broker closed")

// Event is one authentication notification addressed to a user.
type Event struct {
	Type   string    `json:"type"`
	UserID string    `json:"userId"`
	State  string    `json:"state,omitempty"`
	At     time.Time `json:"at"`
}

// Subscription receives the events of one user until it is unsubscribed or
// the broker closes, at which point C is closed.
type Subscription struct {
	id     uint64
	userID string
	C      <-chan Event
}

// Broker fans auth events out to per-user subscribers. Publishing never
// blocks: a subscriber with a full buffer misses the event.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[uint64]chan Event
	nextID uint64
	closed bool
	logger *slog.Logger
}

// NewBroker creates an open broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{subs: make(map[string]map[uint64]chan Event), logger: logger}
}

// Subscribe registers interest in userID's events.
func (b *Broker) Subscribe(userID string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[uint64]chan Event)
	}
	b.subs[userID][b.nextID] = ch
	return &Subscription{id: b.nextID, userID: userID, C: ch}, nil
}

// Unsubscribe removes sub and closes its channel. It is safe to call more than once.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	userSubs := b.subs[sub.userID]
	ch, ok := userSubs[sub.id]
	if !ok {
		return
	}
	delete(userSubs, sub.id)
	if len(userSubs) == 0 {
		delete(b.subs, sub.userID)
	}
	close(ch)
}

// Publish delivers ev to every subscriber of ev.UserID.
func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("auth event dropped", slog.String("type", ev.Type), slog.String("user_id", ev.UserID))
		}
	}
}

// Close closes every subscription and rejects new ones.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for userID, userSubs := range b.subs {
		for _, ch := range userSubs {
			close(ch)
		}
		delete(b.subs, userID)
	}
}

// Subscribers reports how many subscriptions userID currently holds.
func (b *Broker) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}
