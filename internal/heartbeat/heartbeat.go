// Package heartbeat provides the periodic fallback poll that papers over
// missed change events.
//
// The live change channel is at-least-once but not gap-free: events can be
// dropped while the connection is down or the host app is suspended. The
// heartbeat runs a fixed-interval ticker and invokes a tick callback (a
// silent full refresh in the Store) on every tick, re-establishing a fresh
// consistency baseline regardless of what the live feed delivered.
//
// At most one ticker is alive at a time per instance; Start after Start
// returns ErrAlreadyStarted, and the Store stops any previous ticker before
// starting a new one.
package heartbeat

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Common errors for heartbeat operations.
var (
	ErrNotStarted     = errors.New("ticker not started")
	ErrAlreadyStarted = errors.New("ticker already started")
	ErrNoTickFunc     = errors.New("tick callback not set")
)

// TickFunc is invoked on every heartbeat tick.
//
// The context is the ticker's lifecycle context; implementations should
// respect cancellation and must not block for longer than the interval.
type TickFunc func(ctx context.Context)

// Ticker invokes a callback at a fixed interval.
//
// Thread-safe. The zero value is not usable; create instances with New.
type Ticker struct {
	interval time.Duration
	tick     TickFunc

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	ticker  *time.Ticker
}

// New creates a heartbeat ticker.
//
// Parameters:
//   - interval: tick interval (typically 30s)
//   - tick: callback invoked on every tick
func New(interval time.Duration, tick TickFunc) *Ticker {
	return &Ticker{
		interval: interval,
		tick:     tick,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins ticking in the background.
//
// The first tick fires after one full interval; the caller is expected to
// have just completed a fresh load, so an immediate tick would be redundant.
// Continues until Stop is called or the context is cancelled.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return ErrAlreadyStarted
	}
	if t.tick == nil {
		return ErrNoTickFunc
	}

	t.started = true
	t.ticker = time.NewTicker(t.interval)

	go t.tickLoop(ctx)

	return nil
}

// Stop stops the ticker.
//
// Blocks until the ticker goroutine exits. Returns ErrNotStarted if the
// ticker is not running.
func (t *Ticker) Stop() error {
	t.mu.Lock()

	if !t.started {
		t.mu.Unlock()
		return ErrNotStarted
	}

	t.ticker.Stop()
	close(t.stopCh)
	t.started = false

	t.mu.Unlock()

	<-t.doneCh

	return nil
}

// Running reports whether the ticker is currently started.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.started
}

// tickLoop is the background goroutine that dispatches ticks.
func (t *Ticker) tickLoop(ctx context.Context) {
	defer close(t.doneCh)

	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		case <-t.ticker.C:
			t.tick(ctx)
		}
	}
}
