package ordsync

import (
	"context"
	"time"

	"github.com/floradistro/ordsync/internal/heartbeat"
	"github.com/floradistro/ordsync/internal/lifecycle"
	"github.com/floradistro/ordsync/types"
)

// Subscribe opens the live change channel, starts the heartbeat, and
// registers the lifecycle listener.
//
// Idempotent: calling Subscribe while already subscribed tears down the old
// channel first, so there is never more than one set of live handlers.
//
// The heartbeat starts regardless of the handshake outcome — it runs even
// while reconnecting, precisely to paper over missed events. Channel
// failures are not surfaced as errors: they set the state to Reconnecting
// and schedule exactly one retry after the configured fixed delay.
func (s *Store) Subscribe(ctx context.Context) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.ctx == nil {
		// Subscription lifecycle context: independent of the caller's
		// context, cancelled by Unsubscribe.
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
	s.subscribed = true

	s.openChannelLocked()

	if s.heartbeat == nil {
		hb := heartbeat.New(s.cfg.HeartbeatInterval, func(tickCtx context.Context) {
			s.metrics.RecordHeartbeatTick()
			_ = s.SilentRefresh(tickCtx)
		})
		if err := hb.Start(s.ctx); err != nil {
			s.logger.Error("failed to start heartbeat", "error", err)
		} else {
			s.heartbeat = hb
		}
	}

	if s.lifecycle == nil {
		lc := lifecycle.New(s.handleForeground)
		if err := lc.Start(s.ctx); err != nil {
			s.logger.Error("failed to start lifecycle monitor", "error", err)
		} else {
			s.lifecycle = lc
		}
	}

	return nil
}

// Unsubscribe closes the channel, cancels any pending retry, stops the
// heartbeat, removes the lifecycle listener, and sets the state to
// Disconnected. Returns ErrNotSubscribed when no subscription is active.
func (s *Store) Unsubscribe() error {
	s.subMu.Lock()

	if !s.subscribed {
		s.subMu.Unlock()
		return ErrNotSubscribed
	}

	s.subscribed = false
	// Supersede any in-flight fetch so a late resolution cannot mutate
	// the collection after teardown.
	s.canceller.CancelAll()
	s.closeChannelLocked()

	hb := s.heartbeat
	s.heartbeat = nil
	lc := s.lifecycle
	s.lifecycle = nil
	cancel := s.cancel
	s.ctx, s.cancel = nil, nil

	s.subMu.Unlock()

	// Stop outside the lock: both block until their goroutines exit, and
	// the lifecycle callback takes subMu.
	if hb != nil && hb.Running() {
		_ = hb.Stop()
	}
	if lc != nil {
		_ = lc.Stop()
	}
	if cancel != nil {
		cancel()
	}

	s.transitionConnState(ConnDisconnected)
	s.logger.Info("unsubscribed", "topic", s.cfg.Topic)

	return nil
}

// NotifyForeground reports that the host application became active. The
// store issues an immediate silent refresh and, if the channel is not
// connected, forces a reconnect attempt.
func (s *Store) NotifyForeground() {
	s.notifyLifecycle(lifecycle.Foreground)
}

// NotifyBackground reports that the host application left the foreground.
// No action is taken; the transport and OS manage suspension.
func (s *Store) NotifyBackground() {
	s.notifyLifecycle(lifecycle.Background)
}

func (s *Store) notifyLifecycle(phase lifecycle.Phase) {
	s.subMu.Lock()
	lc := s.lifecycle
	s.subMu.Unlock()

	if lc != nil {
		lc.Notify(phase)
	}
}

// WaitConnState waits for the store to reach the expected connection state
// within the timeout period.
//
// The returned channel receives exactly one value: nil if the state is
// reached in time, context.DeadlineExceeded otherwise. The channel is closed
// after sending, allowing safe use in select statements.
//
// Example:
//
//	if err := <-store.WaitConnState(ordsync.ConnConnected, 5*time.Second); err != nil {
//	    log.Printf("never connected: %v", err)
//	}
func (s *Store) WaitConnState(expected ConnState, timeout time.Duration) <-chan error {
	ch := make(chan error, 1) // Buffered to prevent goroutine leak

	go func() {
		defer close(ch)

		if s.ConnState() == expected {
			ch <- nil
			return
		}

		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()

		timeoutTimer := time.NewTimer(timeout)
		defer timeoutTimer.Stop()

		for {
			select {
			case <-ticker.C:
				if s.ConnState() == expected {
					ch <- nil
					return
				}
			case <-timeoutTimer.C:
				ch <- context.DeadlineExceeded
				return
			}
		}
	}()

	return ch
}

// openChannelLocked performs the close-then-open procedure: tear down any
// existing channel and pending retry, then open a fresh channel. Both the
// initial Subscribe and every scheduled retry converge on this procedure.
// Caller must hold subMu.
func (s *Store) openChannelLocked() {
	s.closeChannelLocked()

	s.transitionConnState(ConnConnecting)

	s.channelGen++
	gen := s.channelGen

	handlers := types.ChannelHandlers{
		OnInsert: s.applyInsert,
		OnUpdate: s.applyUpdate,
		OnDelete: s.applyDelete,
		OnStatus: func(status types.ChannelStatus, err error) {
			// Dispatched in the background: the transport may invoke
			// status callbacks synchronously from Open, while subMu
			// is held.
			go s.handleChannelStatus(gen, status, err)
		},
	}

	ch, err := s.channelFactory(s.cfg.Topic, handlers)
	if err != nil {
		s.logger.Warn("channel open failed",
			"topic", s.cfg.Topic,
			"error", err,
		)
		s.transitionConnState(ConnReconnecting)
		s.scheduleRetryLocked()

		return
	}

	s.channel = ch
}

// closeChannelLocked closes the current channel handle and cancels any
// pending retry. Caller must hold subMu.
func (s *Store) closeChannelLocked() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}

	if s.channel != nil {
		ch := s.channel
		s.channel = nil
		// Invalidate the old channel's generation so its Closed status
		// (and any in-flight event statuses) are ignored as stale.
		s.channelGen++

		if err := ch.Close(); err != nil {
			s.logger.Warn("failed to close channel", "topic", s.cfg.Topic, "error", err)
		}
	}
}

// handleChannelStatus drives the connection state machine from transport
// status callbacks. Statuses from a superseded channel generation are
// ignored so a torn-down channel cannot corrupt the state machine.
func (s *Store) handleChannelStatus(gen uint64, status types.ChannelStatus, err error) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if !s.subscribed || gen != s.channelGen {
		return
	}

	switch status {
	case types.ChannelSubscribed:
		s.transitionConnState(ConnConnected)

	case types.ChannelError, types.ChannelTimeout:
		s.logger.Warn("channel failure",
			"topic", s.cfg.Topic,
			"status", status.String(),
			"error", err,
		)
		// The errored handle must be closed, not abandoned: its event
		// handlers stay live until Close, and the replacement channel
		// must never run alongside them.
		s.closeChannelLocked()
		s.transitionConnState(ConnReconnecting)
		s.scheduleRetryLocked()

	case types.ChannelClosed:
		// Explicit close from the transport: no automatic retry. Only
		// a foreground resume or a manual Subscribe reconnects.
		s.closeChannelLocked()
		s.transitionConnState(ConnDisconnected)
	}
}

// scheduleRetryLocked schedules the single reconnect attempt after the fixed
// delay. If a retry is already pending, the call is a no-op: each failure
// schedules at most one future attempt, so there is never more than one
// pending timer. Caller must hold subMu.
func (s *Store) scheduleRetryLocked() {
	if s.retryTimer != nil {
		return
	}

	s.metrics.RecordReconnectScheduled()
	s.logger.Info("scheduling reconnect",
		"topic", s.cfg.Topic,
		"delay", s.cfg.ReconnectDelay,
	)

	s.retryTimer = time.AfterFunc(s.cfg.ReconnectDelay, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()

		s.retryTimer = nil
		if !s.subscribed {
			return
		}

		s.openChannelLocked()
	})
}

// handleForeground runs on every transition of the host app to the
// foreground: refresh immediately (timers may have been suspended while
// backgrounded), and force a reconnect attempt if the channel is not
// connected.
func (s *Store) handleForeground() {
	ctx := s.runCtx()

	_ = s.SilentRefresh(ctx)

	if s.ConnState() != ConnConnected {
		s.logger.Info("foreground resume with inactive channel, reconnecting",
			"topic", s.cfg.Topic,
			"state", s.ConnState().String(),
		)
		_ = s.Subscribe(ctx)
	}
}

// transitionConnState transitions to a new connection state and triggers
// hooks. Invalid transitions are logged and dropped.
func (s *Store) transitionConnState(to ConnState) {
	from := s.ConnState()
	if from == to {
		return
	}

	if !isValidConnTransition(from, to) {
		s.logger.Error("invalid connection state transition attempted",
			"from", from.String(),
			"to", to.String(),
		)

		return
	}

	s.connState.Store(int32(to))

	s.logger.Info("connection state transition",
		"from", from.String(),
		"to", to.String(),
		"topic", s.cfg.Topic,
	)

	s.metrics.RecordConnStateTransition(from, to)

	if s.hooks.OnConnStateChanged != nil {
		ctx := s.runCtx()
		// Run hook in background to avoid blocking the state machine
		go func() {
			if err := s.hooks.OnConnStateChanged(ctx, from, to); err != nil {
				s.logger.Error("connection state hook error",
					"from", from.String(),
					"to", to.String(),
					"error", err,
				)
			}
		}()
	}
}

// isValidConnTransition validates that a connection state transition is
// allowed.
func isValidConnTransition(from, to ConnState) bool {
	validTransitions := map[ConnState][]ConnState{
		ConnDisconnected: {ConnConnecting},
		ConnConnecting:   {ConnConnected, ConnReconnecting, ConnDisconnected},
		ConnConnected:    {ConnConnecting, ConnReconnecting, ConnDisconnected},
		ConnReconnecting: {ConnConnecting, ConnDisconnected},
	}

	allowed, exists := validTransitions[from]
	if !exists {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}

// pendingRetries reports how many reconnect timers are pending. At most one
// may exist at any time.
func (s *Store) pendingRetries() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.retryTimer != nil {
		return 1
	}

	return 0
}
