// Package lifecycle observes host application foreground/background
// transitions.
//
// Mobile and desktop hosts suspend timers while the app is backgrounded, so
// the change channel and the heartbeat can both go quiet without any error
// being reported. The monitor gives the Store a hook point: on every
// transition to the foreground it fires a callback (the Store issues an
// immediate silent refresh and, if not connected, a re-subscribe).
// Background transitions are recorded but take no action; the transport and
// the OS manage suspension.
//
// The host integration surface is Notify: whatever mechanism the embedding
// app uses to learn about lifecycle changes (platform bindings, signals, a
// window manager callback) simply calls Notify with the new phase.
package lifecycle

import (
	"context"
	"errors"
	"sync"
)

// Common errors for lifecycle operations.
var (
	ErrNotStarted     = errors.New("monitor not started")
	ErrAlreadyStarted = errors.New("monitor already started")
)

// Phase is a host application lifecycle phase.
type Phase int

const (
	// Background indicates the app moved out of the foreground.
	Background Phase = iota

	// Foreground indicates the app became active.
	Foreground
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case Background:
		return "Background"
	case Foreground:
		return "Foreground"
	default:
		return "Unknown"
	}
}

// Monitor dispatches foreground transitions to a callback.
//
// Thread-safe. Notify never blocks the caller: phases are delivered through
// a small buffered channel and coalesced if the consumer lags.
type Monitor struct {
	onForeground func()

	mu      sync.Mutex
	started bool
	events  chan Phase
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a lifecycle monitor.
//
// Parameters:
//   - onForeground: callback invoked on every transition to the foreground
func New(onForeground func()) *Monitor {
	return &Monitor{
		onForeground: onForeground,
		events:       make(chan Phase, 4),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins listening for phase notifications.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true

	go m.dispatchLoop(ctx)

	return nil
}

// Stop removes the listener.
//
// Blocks until the dispatch goroutine exits. Notifications delivered after
// Stop are dropped.
func (m *Monitor) Stop() error {
	m.mu.Lock()

	if !m.started {
		m.mu.Unlock()
		return ErrNotStarted
	}

	close(m.stopCh)
	m.started = false

	m.mu.Unlock()

	<-m.doneCh

	return nil
}

// Notify reports a phase transition from the host application.
//
// Non-blocking: if the internal buffer is full the phase is dropped, which is
// safe because the foreground handler is idempotent and a follow-up heartbeat
// tick covers anything missed.
func (m *Monitor) Notify(phase Phase) {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	if !started {
		return
	}

	select {
	case m.events <- phase:
	default:
	}
}

// dispatchLoop consumes phase notifications and fires the callback.
func (m *Monitor) dispatchLoop(ctx context.Context) {
	defer close(m.doneCh)

	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case phase := <-m.events:
			if phase == Foreground && m.onForeground != nil {
				m.onForeground()
			}
		}
	}
}
