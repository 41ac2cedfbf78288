// Package badge holds the process-wide cart item count: the number shown
// next to the cart icon on screens that do not hold a cart reference.
//
// The count is an explicit subject rather than a bare shared integer:
// subscribers register a callback and are notified synchronously, in
// subscription order, on every write. Writers must always publish the
// freshly computed total — never a delta derived from an earlier Read —
// so racing writers cannot make the badge drift.
package badge

import (
	"sync"

	"github.com/google/uuid"
)

type subscriber struct {
	id string
	fn func(count int)
}

// Signal is the observable cart item count. The zero value is ready to use
// and reads 0.
type Signal struct {
	mu    sync.Mutex
	count int
	subs  []subscriber
}

func NewSignal() *Signal {
	return &Signal{}
}

// Read returns the last written count.
func (s *Signal) Read() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Write publishes a freshly computed absolute count and notifies every
// subscriber. Callbacks run synchronously on the caller's goroutine and
// must not call back into the Signal.
func (s *Signal) Write(count int) {
	s.mu.Lock()
	s.count = count
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	// Notify outside the lock, in subscription order.
	for _, sub := range subs {
		sub.fn(count)
	}
}

// Subscribe registers fn to be called on every Write and returns a
// function that removes the subscription. fn is not called with the
// current value at registration time; call Read for that.
func (s *Signal) Subscribe(fn func(count int)) (unsubscribe func()) {
	id := uuid.NewString()

	s.mu.Lock()
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}
