package services

import (
	"sync"

	"github.com/dmitrijs2005/ttychat/internal/server/models"
)

// DefaultSubscriptionBuffer is the per-subscriber queue length.
const DefaultSubscriptionBuffer = 256

// Subscription receives changes for one path. C is closed when the
// subscription is closed or when the subscriber falls too far behind.
type Subscription struct {
	C <-chan models.Change

	ch     chan models.Change
	path   string
	broker *Broker
	once   sync.Once
}

// Close detaches the subscription from the broker.
func (s *Subscription) Close() {
	s.broker.remove(s)
}

// Broker fans document changes out to watchers in process. A change is
// delivered to subscribers of the document path and of its parent
// collection.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}
	return &Broker{subs: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

func (b *Broker) Subscribe(path string) *Subscription {
	ch := make(chan models.Change, b.buffer)
	s := &Subscription{C: ch, ch: ch, path: path, broker: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[path]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[path] = set
	}
	set[s] = struct{}{}
	return s
}

// Publish never blocks. A subscriber whose queue is full is dropped and
// its channel closed, so it must re-watch to resync.
func (b *Broker) Publish(c models.Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deliverLocked(c.Document.Path, c)
	if c.Document.Parent != "" {
		b.deliverLocked(c.Document.Parent, c)
	}
}

func (b *Broker) deliverLocked(path string, c models.Change) {
	for s := range b.subs[path] {
		select {
		case s.ch <- c:
		default:
			b.removeLocked(s)
		}
	}
}

func (b *Broker) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(s)
}

func (b *Broker) removeLocked(s *Subscription) {
	if set, ok := b.subs[s.path]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(b.subs, s.path)
		}
	}
	s.once.Do(func() { close(s.ch) })
}

// Subscribers returns the number of live subscriptions on path.
func (b *Broker) Subscribers(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[path])
}
