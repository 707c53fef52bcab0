package event

import (
	"context"
	"time"
)

// Coalescer watches an Event and performs coalesced signaling, combining
// notifications that occur within a specified time window into a single
// signal. A Coalescer is safe for concurrent usage. It maintains a
// background Goroutine that must be terminated using Terminate.
type Coalescer struct {
	// signals is the channel on which coalesced signals are delivered.
	signals chan struct{}
	// cancel signals termination to the run loop.
	cancel context.CancelFunc
	// done is closed to indicate that the run loop has exited.
	done chan struct{}
}

// NewCoalescer creates a coalescer that watches the specified event and
// groups notifications occurring within the specified time window of each
// other. If window is negative, it will be treated as zero.
func NewCoalescer(event *Event, window time.Duration) *Coalescer {
	// If the specified window is negative, then treat it as zero.
	if window < 0 {
		window = 0
	}

	// Create a cancellable context to regulate the run loop.
	ctx, cancel := context.WithCancel(context.Background())

	// Create the coalescer.
	coalescer := &Coalescer{
		signals: make(chan struct{}, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	// Start the coalescer's run loop.
	go coalescer.run(ctx, event, window)

	// Done.
	return coalescer
}

// run implements the notification processing run loop for Coalescer.
func (c *Coalescer) run(ctx context.Context, event *Event, window time.Duration) {
	// Create the (initially stopped) coalescing timer.
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	// Register the initial listener.
	listener := event.Listen()

	// Loop and process notifications until cancelled, keeping a listener
	// registered at all times so that at most one notification edge can be
	// lost between wake and re-registration (which coalescing absorbs).
	for {
		select {
		case <-ctx.Done():
			listener.Close()
			timer.Stop()
			close(c.done)
			return
		case <-listener.Done():
			listener = event.Listen()
			timer.Stop()
			select {
			case <-timer.C:
			default:
			}
			timer.Reset(window)
		case <-timer.C:
			select {
			case c.signals <- struct{}{}:
			default:
			}
		}
	}
}

// Signals returns the signal notification channel. This channel is
// buffered with a capacity of 1, so no signaling will ever be lost if it's
// not actively polled. The resulting channel is never closed.
func (c *Coalescer) Signals() <-chan struct{} {
	return c.signals
}

// Terminate shuts down the coalescer's internal run loop and waits for it
// to terminate. Terminate is idempotent. Only previously buffered signals
// will be delivered on the channel returned by Signals after Terminate
// returns.
func (c *Coalescer) Terminate() {
	c.cancel()
	<-c.done
}
