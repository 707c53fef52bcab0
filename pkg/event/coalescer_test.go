package event

import (
	"testing"
	"time"
)

// TestCoalescer tests that bursts of notifications are coalesced into a
// single signal.
func TestCoalescer(t *testing.T) {
	// Create an event and a coalescer watching it, ensuring coalescer
	// termination by the time we return.
	event := NewEvent()
	coalescer := NewCoalescer(event, 10*time.Millisecond)
	defer coalescer.Terminate()

	// Fire a burst of notifications well within the coalescing window.
	for i := 0; i < 5; i++ {
		event.NotifyAll()
	}

	// A signal should be delivered once the window elapses.
	select {
	case <-coalescer.Signals():
	case <-time.After(eventTestTimeout):
		t.Fatal("timeout waiting for coalesced signal")
	}

	// The burst should have produced only that one signal.
	select {
	case <-coalescer.Signals():
		t.Fatal("burst produced multiple signals")
	case <-time.After(50 * time.Millisecond):
	}

	// A subsequent notification should produce a fresh signal.
	event.NotifyAll()
	select {
	case <-coalescer.Signals():
	case <-time.After(eventTestTimeout):
		t.Fatal("timeout waiting for post-burst signal")
	}
}

// TestCoalescerTerminate tests coalescer termination behavior.
func TestCoalescerTerminate(t *testing.T) {
	// Create an event and a coalescer watching it.
	event := NewEvent()
	coalescer := NewCoalescer(event, 10*time.Millisecond)

	// Terminate the coalescer, verifying idempotence.
	coalescer.Terminate()
	coalescer.Terminate()

	// The coalescer's listener should have been deregistered.
	if waiters := event.Waiters(); waiters != 0 {
		t.Error("waiter set non-empty after coalescer termination:", waiters)
	}

	// Notifications after termination shouldn't produce signals.
	event.NotifyAll()
	select {
	case <-coalescer.Signals():
		t.Error("terminated coalescer delivered a signal")
	case <-time.After(50 * time.Millisecond):
	}
}
