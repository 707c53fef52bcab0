package event

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrListenerConsumed indicates that a listener has already delivered its
// notification to a Wait call and cannot be awaited again.
var ErrListenerConsumed = errors.New("listener already consumed")

// ErrListenerClosed indicates that a listener was closed (or its Wait call
// cancelled) before being notified.
var ErrListenerClosed = errors.New("listener closed")

// listenerState is the storage type for a listener's state machine.
type listenerState = atomic.Int32

const (
	// listenerStateRegistered indicates that the listener is registered in
	// its event's waiter set and hasn't yet been notified.
	listenerStateRegistered int32 = iota
	// listenerStateNotified indicates that the listener has been woken by
	// a NotifyAll call but not yet consumed by a Wait call.
	listenerStateNotified
	// listenerStateConsumed indicates that a Wait call has observed the
	// listener's notification.
	listenerStateConsumed
	// listenerStateClosed indicates that the listener was deregistered
	// before being notified.
	listenerStateClosed
)

// Listener is a single-shot handle on an Event's next notification. It is
// created by Event.Listen, at which point it is already registered: any
// NotifyAll call that the registration happens before will wake it. A
// listener delivers at most one notification, to at most one Wait call.
//
// A listener that will never be awaited should be released with Close so
// that it doesn't occupy a slot in the event's waiter set.
type Listener struct {
	// event is the parent event. It outlives the listener.
	event *Event
	// id is the listener's identity in the event's waiter set.
	id uuid.UUID
	// generation is the event generation captured at registration.
	generation uint64
	// wake is the listener's suspension slot. It is closed (by NotifyAll)
	// to resume a parked Wait call.
	wake chan struct{}
	// state is the listener's state machine storage.
	state listenerState
}

// Wait parks the calling Goroutine until the listener is notified or the
// context is cancelled. It returns nil if the notification was delivered
// and the context's error if cancelled first, in which case the listener
// is deregistered and dead. Calling Wait after a previous Wait consumed
// the notification returns ErrListenerConsumed; calling it on a closed
// listener returns ErrListenerClosed.
func (l *Listener) Wait(ctx context.Context) error {
	// Reject waits on spent listeners.
	switch l.state.Load() {
	case listenerStateConsumed:
		return ErrListenerConsumed
	case listenerStateClosed:
		return ErrListenerClosed
	}

	// Park until woken or cancelled. A wake can also originate from a
	// concurrent Close call, distinguished by the closed state.
	select {
	case <-l.wake:
		if l.state.Load() == listenerStateClosed {
			return ErrListenerClosed
		}
		l.state.Store(listenerStateConsumed)
		return nil
	case <-ctx.Done():
		// Deregister. A NotifyAll call may have already drained this
		// listener from the waiter set, in which case its wake is either
		// delivered or imminent, so perform a final non-blocking check and
		// prefer delivery over cancellation.
		l.event.remove(l.id)
		select {
		case <-l.wake:
			if l.state.Load() == listenerStateClosed {
				return ErrListenerClosed
			}
			l.state.Store(listenerStateConsumed)
			return nil
		default:
		}
		l.state.Store(listenerStateClosed)
		return ctx.Err()
	}
}

// Done exposes the listener's wake channel for select-based composition.
// The channel is closed when the listener is notified or closed. Callers
// that receive from it directly should still invoke Wait (which will
// return immediately) or treat the listener as spent.
func (l *Listener) Done() <-chan struct{} {
	return l.wake
}

// Close releases an unconsumed listener, removing it from its event's
// waiter set. A Wait call parked on the listener is woken and returns
// ErrListenerClosed. Close is safe to call multiple times and safe to
// call on a listener that has already been notified or consumed, in which
// case it has no effect.
func (l *Listener) Close() {
	if l.state.CompareAndSwap(listenerStateRegistered, listenerStateClosed) {
		// Close the wake channel only if the waiter was still registered.
		// If a concurrent NotifyAll has already drained it, that call owns
		// the channel and the wake is imminent.
		if l.event.remove(l.id) {
			close(l.wake)
		}
	}
}
