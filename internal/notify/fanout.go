// Package notify delivers state snapshots to subscribers in the order the
// state changed.
package notify

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Fanout is a subscriber list with an ordered delivery queue. Owners call
// Enqueue while still holding the lock that guards their state, then Flush
// after releasing it. Snapshots reach every subscriber one at a time, in
// enqueue order, and never while the owner's lock is held.
//
// A subscriber may mutate the owner from inside its callback: the resulting
// snapshot is queued and delivered by the goroutine already flushing.
type Fanout[T any] struct {
	mu       sync.Mutex
	subs     []subscriber[T]
	nextID   int
	pending  []T
	draining bool
}

// Subscribe registers fn. The returned func removes it.
func (f *Fanout[T]) Subscribe(fn func(T)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs = append(f.subs, subscriber[T]{id: id, fn: fn})
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

// Enqueue queues v for delivery.
func (f *Fanout[T]) Enqueue(v T) {
	f.mu.Lock()
	f.pending = append(f.pending, v)
	f.mu.Unlock()
}

// Flush delivers queued snapshots unless another goroutine is already doing
// so, in which case that goroutine delivers them.
func (f *Fanout[T]) Flush() {
	f.mu.Lock()
	if f.draining {
		f.mu.Unlock()
		return
	}
	f.draining = true
	for len(f.pending) > 0 {
		v := f.pending[0]
		var zero T
		f.pending[0] = zero
		f.pending = f.pending[1:]
		subs := append([]subscriber[T](nil), f.subs...)
		f.mu.Unlock()

		for _, s := range subs {
			s.fn(v)
		}

		f.mu.Lock()
	}
	f.pending = nil
	f.draining = false
	f.mu.Unlock()
}

// Publish is Enqueue followed by Flush, for owners without a state lock of
// their own.
func (f *Fanout[T]) Publish(v T) {
	f.Enqueue(v)
	f.Flush()
}
