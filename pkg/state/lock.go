package state

import (
	"sync"

	"github.com/katharostech/piper/pkg/event"
)

// NotifyingLock provides locking facilities with automatic change
// notification on release, allowing lock-structured code to participate in
// change notification without wrapping its state in a ChangeNotifier.
type NotifyingLock struct {
	// lock is the underlying mutex.
	lock sync.Mutex
	// event is the wakeup primitive fired on unlock.
	event *event.Event
}

// NewNotifyingLock creates a new notifying lock that fires the specified
// event when unlocked.
func NewNotifyingLock(event *event.Event) *NotifyingLock {
	return &NotifyingLock{
		event: event,
	}
}

// Lock locks the notifying lock.
func (l *NotifyingLock) Lock() {
	l.lock.Lock()
}

// Unlock unlocks the notifying lock and wakes all listeners registered on
// the associated event.
func (l *NotifyingLock) Unlock() {
	l.lock.Unlock()
	l.event.NotifyAll()
}

// UnlockWithoutNotify unlocks the notifying lock without waking listeners.
// It is intended for releases after read-only critical sections.
func (l *NotifyingLock) UnlockWithoutNotify() {
	l.lock.Unlock()
}
