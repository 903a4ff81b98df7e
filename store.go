package ordsync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/floradistro/ordsync/channel"
	"github.com/floradistro/ordsync/internal/heartbeat"
	"github.com/floradistro/ordsync/internal/lifecycle"
	"github.com/floradistro/ordsync/internal/logger"
	"github.com/floradistro/ordsync/internal/metrics"
	"github.com/floradistro/ordsync/internal/supersede"
	"github.com/floradistro/ordsync/reconcile"
	"github.com/floradistro/ordsync/types"
)

// Refresh kinds reported to the metrics collector.
const (
	refreshKindLoad    = "load"
	refreshKindRefresh = "refresh"
	refreshKindSilent  = "silent"
)

// Store is the synchronized collection: it holds the record set, connection
// state, and last-sync timestamp, and reconciles the initial bulk load, the
// live change-event stream, and the periodic fallback poll into one
// consistent, observable collection.
//
// Thread Safety:
//   - All public methods are safe for concurrent use
//   - Snapshot accessors return copies that never alias internal state
//   - The collection is only mutated through reconcile transitions, a
//     full-load replacement, or an optimistic field patch
//
// Lifecycle:
//   - Create with NewStore()
//   - Call Load() for the initial bulk fetch
//   - Call Subscribe() to open the live channel and start the heartbeat
//   - Use hooks to react to collection and connection-state changes
//   - Call Unsubscribe() to tear everything down
type Store struct {
	cfg     Config
	conn    *nats.Conn
	service types.RecordService

	// Optional dependencies
	hooks          *Hooks
	metrics        MetricsCollector
	logger         Logger
	channelFactory ChannelFactory

	// Collection state
	mu         sync.RWMutex
	records    []types.Record
	loading    bool
	loadingTok supersede.Token
	lastErr    error
	lastSyncAt time.Time
	filter     types.Filter

	connState atomic.Int32 // ConnState

	// Subscription lifecycle
	subMu      sync.Mutex
	subscribed bool
	channel    types.ChannelHandle
	channelGen uint64
	retryTimer *time.Timer
	heartbeat  *heartbeat.Ticker
	lifecycle  *lifecycle.Monitor
	ctx        context.Context
	cancel     context.CancelFunc

	canceller supersede.Canceller
}

// NewStore creates a new Store instance with the provided configuration.
//
// Returns a concrete *Store following the "accept interfaces, return
// structs" principle. Consumers can define their own interfaces for testing
// if needed.
//
// Parameters:
//   - cfg: Runtime configuration (defaults applied to zero fields)
//   - conn: NATS connection for the change channel (may be nil when a custom
//     channel factory is provided via WithChannelFactory)
//   - service: Remote authoritative record service
//   - opts: Optional configuration (hooks, metrics, logger, channel factory)
//
// Example:
//
//	cfg := ordsync.Config{Topic: "orders.store1"}
//	svc, _ := service.NewNATSClient(nc, "orders.rpc", 10*time.Second)
//	store, err := ordsync.NewStore(&cfg, nc, svc)
func NewStore(cfg *Config, conn *nats.Conn, svc types.RecordService, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if svc == nil {
		return nil, ErrServiceRequired
	}

	// Fill in missing configuration values with defaults
	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// Apply options
	options := &storeOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if conn == nil && options.channelFactory == nil {
		return nil, ErrNATSConnectionRequired
	}

	// Provide safe defaults for optional dependencies to avoid nil checks
	// everywhere
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	hooksInstance := options.hooks
	if hooksInstance == nil {
		hooksInstance = &Hooks{}
	}

	s := &Store{
		cfg:            *cfg,
		conn:           conn,
		service:        svc,
		hooks:          hooksInstance,
		metrics:        metricsCollector,
		logger:         loggerInstance,
		channelFactory: options.channelFactory,
	}

	if s.channelFactory == nil {
		s.channelFactory = func(topic string, handlers types.ChannelHandlers) (types.ChannelHandle, error) {
			ch, err := channel.Open(s.conn, topic, s.cfg.HandshakeTimeout, handlers, s.logger)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", types.ErrChannelOpenFailed, err)
			}

			return ch, nil
		}
	}

	s.connState.Store(int32(ConnDisconnected))

	return s, nil
}

// Load issues a fresh bulk fetch scoped by filter, superseding any prior
// in-flight load, and on success replaces the entire collection with the
// fetched set. The filter becomes the store's active filter, reused by
// Refresh and SilentRefresh.
//
// The loading flag is set for the duration of the call and cleared on
// completion (success, supersession, or error). A superseded load resolves
// without mutating collection state and without error.
func (s *Store) Load(ctx context.Context, filter Filter) error {
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()

	return s.fetch(ctx, refreshKindLoad)
}

// Refresh issues a loud bulk fetch with the active filter. Intended for
// user-initiated pull-to-refresh: the loading flag is surfaced to the UI and
// a failure is stored on the error field.
func (s *Store) Refresh(ctx context.Context) error {
	return s.fetch(ctx, refreshKindRefresh)
}

// SilentRefresh has the same data effect as Refresh but never touches the
// loading flag and never stores an error: failures are logged only. Used by
// the heartbeat and the foreground-resume path so the UI does not flicker.
func (s *Store) SilentRefresh(ctx context.Context) error {
	return s.fetch(ctx, refreshKindSilent)
}

// fetch performs a bulk fetch and applies its result under the supersession
// discipline: only the most recently issued fetch may mutate the collection.
func (s *Store) fetch(ctx context.Context, kind string) error {
	token := s.canceller.Next()
	loud := kind != refreshKindSilent

	s.mu.Lock()
	filter := s.filter
	if loud {
		s.loading = true
		s.loadingTok = token
		s.lastErr = nil
	}
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	records, err := s.service.FetchAll(ctx, filter)
	duration := time.Since(start).Seconds()

	// The supersession check happens exactly once, when the fetch
	// resolves. A superseded resolution clears the loading flag it set
	// and touches nothing else.
	if token.Superseded() {
		s.clearLoading(token)
		s.logger.Debug("discarding superseded fetch", "kind", kind)

		return nil
	}

	if err != nil {
		s.metrics.RecordRefresh(kind, false, duration)

		wrapped := fmt.Errorf("%w: %w", ErrFetchFailed, err)
		if loud {
			s.mu.Lock()
			s.lastErr = wrapped
			s.mu.Unlock()
			s.clearLoading(token)
			s.notifyError(wrapped)
		} else {
			s.logger.Warn("silent refresh failed", "topic", s.cfg.Topic, "error", err)
		}

		return wrapped
	}

	s.mu.Lock()
	s.records = cloneRecords(records)
	s.lastSyncAt = time.Now()
	s.lastErr = nil
	snapshot := cloneRecords(s.records)
	s.mu.Unlock()
	s.clearLoading(token)

	s.metrics.RecordRefresh(kind, true, duration)
	s.notifyRecordsChanged(snapshot)

	return nil
}

// clearLoading clears the loading flag if it is still owned by the given
// token. A newer loud fetch takes ownership of the flag, so a stale
// completion cannot stomp it.
func (s *Store) clearLoading(token supersede.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadingTok == token {
		s.loading = false
	}
}

// MutateField optimistically patches the local record matching id, then
// persists the patch through the record service. If the remote call fails,
// the store reverts by issuing a full Refresh rather than attempting a local
// undo, guaranteeing convergence to server truth.
func (s *Store) MutateField(ctx context.Context, id string, field Field, value any) error {
	s.mu.Lock()

	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	patched := s.records[idx].Clone()
	if err := patched.PatchField(field, value); err != nil {
		s.mu.Unlock()
		return err
	}

	s.records[idx] = patched
	s.lastSyncAt = time.Now()
	snapshot := cloneRecords(s.records)
	s.mu.Unlock()

	s.notifyRecordsChanged(snapshot)

	if err := s.service.UpdateField(ctx, id, field, value); err != nil {
		s.metrics.RecordMutation(field, false)
		s.logger.Warn("field mutation failed, reverting via refresh",
			"id", id,
			"field", string(field),
			"error", err,
		)

		// Revert on the store's own context: the caller's may be the
		// very context whose cancellation failed the persist, and the
		// stale optimistic value must not outlive it.
		if rerr := s.Refresh(s.runCtx()); rerr != nil {
			s.logger.Error("revert refresh failed", "id", id, "error", rerr)
		}

		return fmt.Errorf("failed to persist field mutation: %w", err)
	}

	s.metrics.RecordMutation(field, true)

	return nil
}

// Records returns a deep-copied snapshot of the collection, newest-insert
// first.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneRecords(s.records)
}

// Loading reports whether a loud fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loading
}

// Err returns the error stored by the last failed loud fetch, or nil. A
// successful fetch clears it.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastErr
}

// LastSyncAt returns the wall-clock time of the last collection mutation.
func (s *Store) LastSyncAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastSyncAt
}

// ConnState returns the current connection state.
func (s *Store) ConnState() ConnState {
	return ConnState(s.connState.Load())
}

// applyInsert applies a live insert event and schedules the derived-field
// backfill: insert payloads carry base fields only, so the inserted record
// is a latency-hiding placeholder and the follow-up silent refresh is the
// source of truth.
func (s *Store) applyInsert(rec types.Record) {
	s.mu.Lock()
	s.records = reconcile.Insert(s.records, rec)
	s.lastSyncAt = time.Now()
	snapshot := cloneRecords(s.records)
	s.mu.Unlock()

	s.metrics.RecordReconcile(types.OpInsert)
	s.notifyRecordsChanged(snapshot)

	go func() {
		_ = s.SilentRefresh(s.runCtx())
	}()
}

// applyUpdate applies a live update event: merge into the existing record,
// preserving derived fields the partial payload omits; no-op when the
// identity is unknown (it will arrive via the next refresh).
func (s *Store) applyUpdate(rec types.Record) {
	s.mu.Lock()
	s.records = reconcile.Update(s.records, rec)
	s.lastSyncAt = time.Now()
	snapshot := cloneRecords(s.records)
	s.mu.Unlock()

	s.metrics.RecordReconcile(types.OpUpdate)
	s.notifyRecordsChanged(snapshot)
}

// applyDelete applies a live delete event; no-op when the identity is
// unknown.
func (s *Store) applyDelete(id string) {
	s.mu.Lock()
	s.records = reconcile.Delete(s.records, id)
	s.lastSyncAt = time.Now()
	snapshot := cloneRecords(s.records)
	s.mu.Unlock()

	s.metrics.RecordReconcile(types.OpDelete)
	s.notifyRecordsChanged(snapshot)
}

// notifyRecordsChanged triggers the records-changed hook in the background.
func (s *Store) notifyRecordsChanged(snapshot []Record) {
	if s.hooks.OnRecordsChanged == nil {
		return
	}

	ctx := s.runCtx()
	go func() {
		if err := s.hooks.OnRecordsChanged(ctx, snapshot); err != nil {
			s.logger.Error("records changed hook error", "error", err)
		}
	}()
}

// notifyError triggers the error hook in the background.
func (s *Store) notifyError(err error) {
	if s.hooks.OnError == nil {
		return
	}

	ctx := s.runCtx()
	go func() {
		if hookErr := s.hooks.OnError(ctx, err); hookErr != nil {
			s.logger.Error("error hook error", "error", hookErr)
		}
	}()
}

// runCtx returns the subscription lifecycle context, or a background context
// when the store is not subscribed.
func (s *Store) runCtx() context.Context {
	s.subMu.Lock()
	ctx := s.ctx
	s.subMu.Unlock()

	if ctx == nil {
		return context.Background()
	}

	return ctx
}

func cloneRecords(records []types.Record) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}

	return out
}
