// Package bus fans chat engine events out to in-process subscribers: the
// cache mirror and every WatchEvents stream.
package bus

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Bus delivers events to subscribers by kind prefix. Delivery never blocks
// the publisher; a subscriber whose buffer is full misses the event and the
// miss is counted.
type Bus struct {
	mu      sync.Mutex
	subs    atomic.Pointer[[]*subscriber]
	dropped atomic.Uint64
}

type subscriber struct {
	prefix string
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	b := &Bus{}
	b.subs.Store(&[]*subscriber{})
	return b
}

// Publish delivers evt to every subscriber whose prefix matches evt.Kind.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	for _, s := range *b.subs.Load() {
		if !strings.HasPrefix(evt.Kind, s.prefix) {
			continue
		}
		select {
		case s.ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Emit publishes payload under kind, stamped now.
func (b *Bus) Emit(kind string, payload any) {
	b.Publish(Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}

// Subscribe registers a buffered receiver for kinds starting with prefix;
// "" receives everything. The returned cancel func may be called repeatedly.
func (b *Bus) Subscribe(prefix string, buf int) (<-chan Event, func()) {
	s := &subscriber{prefix: prefix, ch: make(chan Event, buf)}
	b.update(func(cur []*subscriber) []*subscriber { return append(cur, s) })

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			b.update(func(cur []*subscriber) []*subscriber {
				out := make([]*subscriber, 0, len(cur))
				for _, o := range cur {
					if o != s {
						out = append(out, o)
					}
				}
				return out
			})
		})
	}
}

// update swaps in a new subscriber list; Publish reads the old one lock-free.
func (b *Bus) update(f func([]*subscriber) []*subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := *b.subs.Load()
	next := f(append([]*subscriber(nil), cur...))
	b.subs.Store(&next)
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	return len(*b.subs.Load())
}

// Dropped returns how many deliveries were skipped because a subscriber was
// full.
func (b *Bus) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}
