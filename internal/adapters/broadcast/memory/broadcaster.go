package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/livepoll/api/internal/core/ports"
)

// subscriberBuffer is how many undelivered events a subscriber may lag
// behind before publishes to it are dropped. Events only signal "re-fetch",
// so a dropped intermediate tick costs nothing once a later one lands.
const subscriberBuffer = 8

// Broadcaster fans poll change events out to in-process subscribers.
// Publishing holds the mutex for the duration of the channel sends, which
// keeps per-poll FIFO ordering across subscribers; sends are non-blocking so
// a stalled consumer cannot stall the publisher.
type Broadcaster struct {
	mu     sync.Mutex
	polls  map[uuid.UUID]map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	ch chan ports.Event
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		polls: make(map[uuid.UUID]map[*subscriber]struct{}),
	}
}

func (b *Broadcaster) Subscribe(pollID uuid.UUID) (<-chan ports.Event, func()) {
	sub := &subscriber{ch: make(chan ports.Event, subscriberBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	subs, ok := b.polls[pollID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		b.polls[pollID] = subs
	}
	subs[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.closed {
				return
			}
			b.remove(pollID, sub)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

func (b *Broadcaster) Publish(pollID uuid.UUID, event ports.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	for sub := range b.polls[pollID] {
		select {
		case sub.ch <- event:
		default:
			// Subscriber buffer full; drop rather than block.
		}
	}
}

func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	for _, subs := range b.polls {
		for sub := range subs {
			close(sub.ch)
		}
	}
	b.polls = nil
}

// remove is called with b.mu held.
func (b *Broadcaster) remove(pollID uuid.UUID, sub *subscriber) {
	subs, ok := b.polls[pollID]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.polls, pollID)
	}
}
