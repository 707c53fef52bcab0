// Package state provides change-notification wrappers for values, allowing
// an arbitrary number of observers to await mutations without polling.
package state

import (
	"sync"

	"github.com/katharostech/piper/pkg/event"
)

// ChangeNotifier wraps a value of type T and allows observers to await its
// next mutation. Notification is edge-triggered on Update calls: listeners
// are woken on every Update, whether or not the update actually changed
// the value, and only on Updates (direct reads and external aliasing are
// invisible). Woken listeners re-read current state themselves; no value
// is delivered with the wake.
//
// A ChangeNotifier is safe for concurrent usage by multiple Goroutines.
type ChangeNotifier[T any] struct {
	// lock guards value. It is held for writing for the duration of Update
	// mutation callbacks and for reading during Get and Read.
	lock sync.RWMutex
	// value is the wrapped value.
	value T
	// event is the wakeup primitive used to signal mutations.
	event *event.Event
}

// NewChangeNotifier creates a new change notifier wrapping the specified
// value.
func NewChangeNotifier[T any](value T) *ChangeNotifier[T] {
	return &ChangeNotifier[T]{
		value: value,
		event: event.NewEvent(),
	}
}

// Update invokes the specified callback with exclusive access to the
// wrapped value and then wakes all registered listeners. The wake strictly
// follows the callback's return, so woken observers see post-update state.
// Exactly one notification is fired per Update call. If the callback
// panics, the panic propagates and no notification is fired, but any
// partial mutation it performed is retained.
func (n *ChangeNotifier[T]) Update(apply func(value *T)) {
	// Apply the update to the wrapped value, releasing the write lock even
	// if the callback panics so that the payload remains reachable.
	func() {
		n.lock.Lock()
		defer n.lock.Unlock()
		apply(&n.value)
	}()

	// Notify all listeners of the change.
	n.event.NotifyAll()
}

// Get returns a copy of the wrapped value. It never blocks beyond the
// notifier's read lock and doesn't interact with listeners.
func (n *ChangeNotifier[T]) Get() T {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.value
}

// Read invokes the specified callback with shared access to the wrapped
// value, avoiding the copy that Get performs. The callback must not
// mutate the value and must not retain the pointer after returning.
func (n *ChangeNotifier[T]) Read(view func(value *T)) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	view(&n.value)
}

// Listen returns a listener that will be woken by the next Update call on
// this notifier. It never blocks. Updates that completed before Listen was
// called are not observed.
func (n *ChangeNotifier[T]) Listen() *event.Listener {
	return n.event.Listen()
}

// Clone creates an independent change notifier wrapping a copy of the
// current value. The clone has its own wakeup channel: listeners obtained
// from the clone are woken only by the clone's updates, and vice versa.
func (n *ChangeNotifier[T]) Clone() *ChangeNotifier[T] {
	return NewChangeNotifier(n.Get())
}

// Apply invokes the specified callback with exclusive access to the
// notifier's wrapped value, wakes all registered listeners, and returns
// the callback's result. It behaves identically to ChangeNotifier.Update
// but allows the update to produce a value. It is a standalone function
// because Go methods can't introduce additional type parameters.
func Apply[T, R any](notifier *ChangeNotifier[T], apply func(value *T) R) R {
	var result R
	notifier.Update(func(value *T) {
		result = apply(value)
	})
	return result
}
