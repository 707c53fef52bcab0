// Package event provides a broadcast wakeup primitive for coordinating an
// arbitrary number of waiters with notifiers across Goroutines.
package event

import (
	"sync"

	"github.com/google/uuid"
)

// waiter is the Event-side view of a registered listener. The Event holds
// only the listener's wake channel and a reference to its state storage,
// not the listener itself.
type waiter struct {
	// state points to the owning listener's state storage.
	state *listenerState
	// wake is the channel closed to resume the listener's waiter.
	wake chan struct{}
}

// Event is a broadcast wakeup primitive. Listeners registered via Listen
// are woken (exactly once each) by the next call to NotifyAll. An Event is
// safe for concurrent usage by multiple Goroutines.
type Event struct {
	// waiting indicates whether the waiter set is non-empty. It allows
	// NotifyAll to return without acquiring the lock when there's nothing
	// to wake.
	waiting Marker
	// lock serializes access to generation and waiters.
	lock sync.Mutex
	// generation is the notification ordering token. It advances on every
	// NotifyAll call that wakes at least one waiter.
	generation uint64
	// waiters maps listener identifiers to their registered waiters.
	waiters map[uuid.UUID]waiter
}

// NewEvent creates a new event with an empty waiter set.
func NewEvent() *Event {
	return &Event{
		waiters: make(map[uuid.UUID]waiter),
	}
}

// Listen registers and returns a listener that will be woken by the next
// NotifyAll call. It never blocks beyond the waiter set lock. The returned
// listener must be consumed by Wait or released by Close to avoid holding
// a slot in the waiter set.
func (e *Event) Listen() *Listener {
	// Create the listener in its registered state. Identifier allocation
	// failure is treated as fatal by the underlying package.
	listener := &Listener{
		event: e,
		id:    uuid.New(),
		wake:  make(chan struct{}),
	}
	listener.state.Store(listenerStateRegistered)

	// Acquire the waiter set lock and ensure its release.
	e.lock.Lock()
	defer e.lock.Unlock()

	// Record the listener's birth generation, register its waiter, and
	// mark the waiter set as non-empty.
	listener.generation = e.generation
	e.waiters[listener.id] = waiter{state: &listener.state, wake: listener.wake}
	e.waiting.Mark()

	// Done.
	return listener
}

// NotifyAll wakes every listener currently in the waiter set and empties
// the set. Listeners registered after NotifyAll acquires the waiter set
// lock are woken by the next call instead. If the waiter set is empty,
// NotifyAll returns without acquiring the lock. NotifyAll returns as soon
// as all wakes have been delivered; it does not wait for woken Goroutines
// to run.
func (e *Event) NotifyAll() {
	// Fast path: nothing is waiting, so there's nothing to do.
	if !e.waiting.Marked() {
		return
	}

	// Acquire the waiter set lock, advance the generation, and swap out
	// the waiter set. The set can have emptied between the fast path check
	// and lock acquisition, in which case the generation is left alone.
	e.lock.Lock()
	drained := e.waiters
	if len(drained) == 0 {
		e.lock.Unlock()
		return
	}
	e.generation += 1
	e.waiters = make(map[uuid.UUID]waiter)
	e.waiting.Unmark()
	e.lock.Unlock()

	// Wake the drained waiters outside of the lock so that woken
	// Goroutines can immediately re-enter the event without deadlocking.
	for _, w := range drained {
		w.state.CompareAndSwap(listenerStateRegistered, listenerStateNotified)
		close(w.wake)
	}
}

// Generation returns the event's current notification ordering token. It
// is monotonically non-decreasing and advances only when a NotifyAll call
// actually wakes waiters.
func (e *Event) Generation() uint64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.generation
}

// Waiters returns the number of listeners currently registered in the
// waiter set. It is intended for instrumentation and testing.
func (e *Event) Waiters() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.waiters)
}

// remove deregisters the identified listener, clearing the fast path flag
// if the waiter set empties. It returns whether the listener was still
// registered; a false return means a NotifyAll call has already drained
// the listener and owns its wake channel. Removal of an already-drained
// listener is otherwise a no-op.
func (e *Event) remove(id uuid.UUID) bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	_, registered := e.waiters[id]
	delete(e.waiters, id)
	if len(e.waiters) == 0 {
		e.waiting.Unmark()
	}
	return registered
}
