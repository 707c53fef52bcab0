package state

import (
	"context"
	"testing"
	"time"

	"github.com/katharostech/piper/pkg/event"
)

// TestNotifyingLock tests NotifyingLock.
func TestNotifyingLock(t *testing.T) {
	// Create an event and wrap it in a notifying lock.
	notifications := event.NewEvent()
	lock := NewNotifyingLock(notifications)

	// Register a listener and start a Goroutine awaiting it.
	listener := notifications.Listen()
	handoff := make(chan error)
	go func() {
		handoff <- listener.Wait(context.Background())
	}()

	// Acquire and release the lock in a way that notifies, and then wait
	// for the listener to be woken.
	lock.Lock()
	lock.Unlock()
	select {
	case err := <-handoff:
		if err != nil {
			t.Fatal("listener wait failed:", err)
		}
	case <-time.After(notifierTestTimeout):
		t.Fatal("timeout waiting for unlock notification")
	}

	// Acquire and release the lock in a way that won't notify, and verify
	// that a fresh listener isn't woken.
	silentListener := notifications.Listen()
	lock.Lock()
	lock.UnlockWithoutNotify()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := silentListener.Wait(ctx); err != context.DeadlineExceeded {
		t.Error("listener woken by silent unlock:", err)
	}
}
