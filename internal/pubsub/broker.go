// Package pubsub carries key-change signals between the local store and the
// components that watch it, inside one process and across processes.
package pubsub

import (
	"sync"
	"time"
)

const defaultBuffer = 64

// Event announces that the value under Key changed. Seq increases strictly
// per key within one broker; Origin names the process that made the change.
type Event struct {
	Key    string    `json:"key"`
	Seq    uint64    `json:"seq"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

type Broker struct {
	mu     sync.Mutex
	origin string
	buffer int
	seq    map[string]uint64
	subs   map[*Subscription]struct{}
	now    func() time.Time
}

type Option func(*Broker)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

func NewBroker(origin string, opts ...Option) *Broker {
	b := &Broker{
		origin: origin,
		buffer: defaultBuffer,
		seq:    make(map[string]uint64),
		subs:   make(map[*Subscription]struct{}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broker) Origin() string {
	return b.origin
}

// Publish stamps and fans out a local change of key.
func (b *Broker) Publish(key string) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dispatchLocked(key, b.origin)
}

// Deliver fans out a change observed elsewhere. The event is re-stamped
// with this broker's sequence for the key; its origin is kept.
func (b *Broker) Deliver(ev Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dispatchLocked(ev.Key, ev.Origin)
}

func (b *Broker) dispatchLocked(key, origin string) Event {
	b.seq[key]++
	ev := Event{Key: key, Seq: b.seq[key], Origin: origin, At: b.now()}
	for sub := range b.subs {
		if sub.wants(key) {
			sub.send(ev)
		}
	}
	return ev
}

// Subscribe registers interest in keys. No keys means every key.
func (b *Broker) Subscribe(keys ...string) *Subscription {
	ch := make(chan Event, b.buffer)
	sub := &Subscription{C: ch, ch: ch, broker: b}
	if len(keys) > 0 {
		sub.keys = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			sub.keys[k] = struct{}{}
		}
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Seq reports the last sequence number issued for key.
func (b *Broker) Seq(key string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq[key]
}

type Subscription struct {
	C <-chan Event

	ch      chan Event
	keys    map[string]struct{}
	broker  *Broker
	dropped uint64
	closed  bool
}

func (s *Subscription) wants(key string) bool {
	if s.keys == nil {
		return true
	}
	_, ok := s.keys[key]
	return ok
}

// send never blocks the publisher. When the buffer is full the oldest
// pending event is discarded to make room.
func (s *Subscription) send(ev Event) {
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}

// Dropped counts events discarded because the subscriber fell behind.
func (s *Subscription) Dropped() uint64 {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	return s.dropped
}

func (s *Subscription) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.broker.subs, s)
	close(s.ch)
}
