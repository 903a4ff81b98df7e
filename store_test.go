package ordsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floradistro/ordsync/service"
	ordsynctesting "github.com/floradistro/ordsync/testing"
	"github.com/floradistro/ordsync/types"
)

// stubService is a controllable RecordService for white-box store tests.
type stubService struct {
	mu         sync.Mutex
	records    []types.Record
	fetchErr   error
	updateErr  error
	fetchCalls int
	gate       chan struct{} // next FetchAll blocks on this once, if set
}

func (s *stubService) FetchAll(ctx context.Context, _ types.Filter) ([]types.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.fetchCalls++
	gate := s.gate
	s.gate = nil
	recs := cloneRecords(s.records)
	err := s.fetchErr
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	return recs, nil
}

func (s *stubService) UpdateField(_ context.Context, id string, field types.Field, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updateErr != nil {
		return s.updateErr
	}

	for i := range s.records {
		if s.records[i].ID == id {
			return s.records[i].PatchField(field, value)
		}
	}

	return types.ErrRecordNotFound
}

func (s *stubService) setRecords(recs []types.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = cloneRecords(recs)
}

func (s *stubService) blockNext(gate chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gate = gate
}

func (s *stubService) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fetchCalls
}

// fakeChannel records close calls and forwards the close status to its
// handlers, mirroring the real channel's behavior.
type fakeChannel struct {
	handlers types.ChannelHandlers

	mu     sync.Mutex
	closed bool
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	if f.handlers.OnStatus != nil {
		f.handlers.OnStatus(types.ChannelClosed, nil)
	}

	return nil
}

func (f *fakeChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

// fakeFactory stands in for the NATS channel: it fails the first `failures`
// opens (emitting the failure status the real Open would) and captures the
// handlers of every successful open so tests can drive live events and
// status callbacks directly.
type fakeFactory struct {
	mu       sync.Mutex
	failures int
	opens    int
	channels []*fakeChannel
}

func (f *fakeFactory) open(_ string, handlers types.ChannelHandlers) (types.ChannelHandle, error) {
	f.mu.Lock()
	f.opens++
	fail := f.opens <= f.failures
	f.mu.Unlock()

	if fail {
		if handlers.OnStatus != nil {
			handlers.OnStatus(types.ChannelTimeout, context.DeadlineExceeded)
		}

		return nil, errors.New("handshake failed")
	}

	ch := &fakeChannel{handlers: handlers}

	f.mu.Lock()
	f.channels = append(f.channels, ch)
	f.mu.Unlock()

	if handlers.OnStatus != nil {
		handlers.OnStatus(types.ChannelSubscribed, nil)
	}

	return ch, nil
}

func (f *fakeFactory) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.opens
}

// latest returns the most recently opened channel, or nil.
func (f *fakeFactory) latest() *fakeChannel {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.channels) == 0 {
		return nil
	}

	return f.channels[len(f.channels)-1]
}

func strPtr(s string) *string { return &s }

func makeRecord(id string, status types.Status) types.Record {
	return types.Record{
		ID:            id,
		Status:        status,
		PaymentStatus: types.PaymentUnpaid,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newTestStore(t *testing.T, svc types.RecordService) (*Store, *fakeFactory) {
	t.Helper()

	factory := &fakeFactory{}
	cfg := TestConfig()

	store, err := NewStore(&cfg, nil, svc,
		WithChannelFactory(factory.open),
		WithLogger(ordsynctesting.NewTestLogger(t)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Unsubscribe()
	})

	return store, factory
}

func TestNewStoreValidation(t *testing.T) {
	svc := &stubService{}
	factory := &fakeFactory{}

	t.Run("nil config", func(t *testing.T) {
		_, err := NewStore(nil, nil, svc, WithChannelFactory(factory.open))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("nil service", func(t *testing.T) {
		cfg := TestConfig()
		_, err := NewStore(&cfg, nil, nil, WithChannelFactory(factory.open))
		require.ErrorIs(t, err, ErrServiceRequired)
	})

	t.Run("nil conn without channel factory", func(t *testing.T) {
		cfg := TestConfig()
		_, err := NewStore(&cfg, nil, svc)
		require.ErrorIs(t, err, ErrNATSConnectionRequired)
	})

	t.Run("empty topic", func(t *testing.T) {
		cfg := TestConfig()
		cfg.Topic = ""
		_, err := NewStore(&cfg, nil, svc, WithChannelFactory(factory.open))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoadReplacesCollection(t *testing.T) {
	svc := &stubService{}
	svc.setRecords([]types.Record{
		makeRecord("a", types.StatusPending),
		makeRecord("b", types.StatusConfirmed),
	})

	store, _ := newTestStore(t, svc)

	require.NoError(t, store.Load(context.Background(), Filter{}))

	records := store.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.False(t, store.Loading())
	assert.NoError(t, store.Err())
	assert.False(t, store.LastSyncAt().IsZero())

	// A later load fully replaces, never merges.
	svc.setRecords([]types.Record{makeRecord("c", types.StatusReady)})
	require.NoError(t, store.Load(context.Background(), Filter{}))

	records = store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "c", records[0].ID)
}

func TestLoadSupersession(t *testing.T) {
	svc := &stubService{}
	svc.setRecords([]types.Record{makeRecord("old", types.StatusPending)})

	store, _ := newTestStore(t, svc)

	gate := make(chan struct{})
	svc.blockNext(gate)

	errCh := make(chan error, 1)
	go func() {
		errCh <- store.Load(context.Background(), Filter{})
	}()

	// Wait until the first fetch is in flight and holding the loading flag.
	require.Eventually(t, func() bool {
		return svc.fetchCount() == 1 && store.Loading()
	}, time.Second, 5*time.Millisecond)

	// A second load supersedes the first and lands its own result.
	svc.setRecords([]types.Record{makeRecord("new", types.StatusReady)})
	require.NoError(t, store.Load(context.Background(), Filter{}))

	// Release the superseded fetch: it must resolve without error and
	// without touching the collection.
	close(gate)
	require.NoError(t, <-errCh)

	records := store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].ID)
	assert.False(t, store.Loading())
}

func TestRefreshErrorIsLoudAndCleared(t *testing.T) {
	svc := &stubService{}
	store, _ := newTestStore(t, svc)

	svc.mu.Lock()
	svc.fetchErr = errors.New("backend down")
	svc.mu.Unlock()

	err := store.Refresh(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorIs(t, store.Err(), ErrFetchFailed)
	assert.False(t, store.Loading())

	svc.mu.Lock()
	svc.fetchErr = nil
	svc.mu.Unlock()
	svc.setRecords([]types.Record{makeRecord("a", types.StatusPending)})

	require.NoError(t, store.Refresh(context.Background()))
	assert.NoError(t, store.Err())
	assert.Len(t, store.Records(), 1)
}

func TestSilentRefreshNeverSurfacesFailures(t *testing.T) {
	svc := &stubService{}
	svc.setRecords([]types.Record{makeRecord("a", types.StatusPending)})

	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background(), Filter{}))

	svc.mu.Lock()
	svc.fetchErr = errors.New("transient")
	svc.mu.Unlock()

	// The failure is returned to the caller but never stored: the UI keeps
	// showing the last good collection with no error banner.
	err := store.SilentRefresh(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)
	assert.NoError(t, store.Err())
	assert.False(t, store.Loading())
	assert.Len(t, store.Records(), 1)
}

func TestMutateFieldOptimisticPersist(t *testing.T) {
	svc := &stubService{}
	svc.setRecords([]types.Record{makeRecord("a", types.StatusPending)})

	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background(), Filter{}))

	require.NoError(t, store.MutateField(context.Background(), "a", FieldStatus, StatusReady))

	records := store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, StatusReady, records[0].Status)

	// Persisted remotely as well.
	svc.mu.Lock()
	remote := svc.records[0].Status
	svc.mu.Unlock()
	assert.Equal(t, StatusReady, remote)
}

func TestMutateFieldRevertsOnRemoteFailure(t *testing.T) {
	svc := &stubService{}
	svc.setRecords([]types.Record{makeRecord("a", types.StatusPending)})

	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background(), Filter{}))

	svc.mu.Lock()
	svc.updateErr = errors.New("write rejected")
	svc.mu.Unlock()

	err := store.MutateField(context.Background(), "a", FieldStatus, StatusReady)
	require.Error(t, err)

	// Reverted to server truth via a full refresh, not a local undo.
	records := store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, StatusPending, records[0].Status)
}

func TestMutateFieldRevertSurvivesCallerCancellation(t *testing.T) {
	svc := &stubService{}
	svc.setRecords([]types.Record{makeRecord("a", types.StatusPending)})

	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background(), Filter{}))

	// The persist fails because the caller's context is gone; the revert
	// fetch must not run on that same dead context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.mu.Lock()
	svc.updateErr = context.Canceled
	svc.mu.Unlock()

	err := store.MutateField(ctx, "a", FieldStatus, StatusReady)
	require.Error(t, err)

	records := store.Records()
	require.Len(t, records, 1)
	assert.Equal(t, StatusPending, records[0].Status)
}

func TestMutateFieldUnknownRecord(t *testing.T) {
	svc := &stubService{}
	store, _ := newTestStore(t, svc)

	err := store.MutateField(context.Background(), "missing", FieldStatus, StatusReady)
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMutateFieldInvalidValue(t *testing.T) {
	svc := &stubService{}
	svc.setRecords([]types.Record{makeRecord("a", types.StatusPending)})

	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background(), Filter{}))

	err := store.MutateField(context.Background(), "a", FieldStatus, 42)
	require.ErrorIs(t, err, ErrInvalidFieldValue)

	// The invalid patch never touched the collection.
	assert.Equal(t, StatusPending, store.Records()[0].Status)
}

func TestLiveEventsReconcile(t *testing.T) {
	svc := &stubService{}
	full := makeRecord("a", types.StatusPending)
	full.CustomerName = strPtr("Ada Lovelace")
	svc.setRecords([]types.Record{full})

	store, factory := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background(), Filter{}))
	require.NoError(t, store.Subscribe(context.Background()))
	require.NoError(t, <-store.WaitConnState(ConnConnected, time.Second))

	handlers := factory.latest().handlers

	// The server committed the status change; the live event announcing it
	// carries base fields only. Derived data must survive the merge.
	updated := full.Clone()
	updated.Status = types.StatusReady
	svc.setRecords([]types.Record{updated})

	handlers.OnUpdate(makeRecord("a", types.StatusReady))

	recs := store.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, types.StatusReady, recs[0].Status)
	require.NotNil(t, recs[0].CustomerName)
	assert.Equal(t, "Ada Lovelace", *recs[0].CustomerName)

	// Delete of an unknown identity is a no-op.
	handlers.OnDelete("ghost")
	assert.Len(t, store.Records(), 1)

	svc.setRecords(nil)
	handlers.OnDelete("a")
	assert.Empty(t, store.Records())
}

func TestLiveInsertBackfillsDerivedFields(t *testing.T) {
	mem := service.NewMemory()
	store, factory := newTestStore(t, mem)

	require.NoError(t, store.Load(context.Background(), Filter{}))
	require.NoError(t, store.Subscribe(context.Background()))
	require.NoError(t, <-store.WaitConnState(ConnConnected, time.Second))

	// The authoritative store holds the full row; the live insert event
	// carries base fields only.
	full := makeRecord("", types.StatusPending)
	full.CustomerName = strPtr("Grace Hopper")
	id := mem.PutSilent(full)

	partial := makeRecord(id, types.StatusPending)
	factory.latest().handlers.OnInsert(partial)

	// Placeholder lands immediately, newest first.
	require.Eventually(t, func() bool {
		recs := store.Records()
		return len(recs) == 1 && recs[0].ID == id
	}, time.Second, 5*time.Millisecond)

	// The follow-up silent refresh backfills the derived fields.
	require.Eventually(t, func() bool {
		recs := store.Records()
		return len(recs) == 1 && recs[0].CustomerName != nil && *recs[0].CustomerName == "Grace Hopper"
	}, time.Second, 5*time.Millisecond)
}

func TestRecordsSnapshotIsolation(t *testing.T) {
	svc := &stubService{}
	rec := makeRecord("a", types.StatusPending)
	rec.CustomerName = strPtr("original")
	svc.setRecords([]types.Record{rec})

	store, _ := newTestStore(t, svc)
	require.NoError(t, store.Load(context.Background(), Filter{}))

	snapshot := store.Records()
	snapshot[0].Status = types.StatusCancelled
	*snapshot[0].CustomerName = "tampered"

	fresh := store.Records()
	assert.Equal(t, types.StatusPending, fresh[0].Status)
	assert.Equal(t, "original", *fresh[0].CustomerName)
}

func TestRecordsChangedHook(t *testing.T) {
	svc := &stubService{}
	svc.setRecords([]types.Record{makeRecord("a", types.StatusPending)})

	var (
		mu        sync.Mutex
		snapshots [][]Record
	)

	factory := &fakeFactory{}
	cfg := TestConfig()
	store, err := NewStore(&cfg, nil, svc,
		WithChannelFactory(factory.open),
		WithLogger(ordsynctesting.NewTestLogger(t)),
		WithHooks(&Hooks{
			OnRecordsChanged: func(_ context.Context, records []Record) error {
				mu.Lock()
				snapshots = append(snapshots, records)
				mu.Unlock()

				return nil
			},
		}),
	)
	require.NoError(t, err)

	require.NoError(t, store.Load(context.Background(), Filter{}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snapshots) == 1 && len(snapshots[0]) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHeartbeatRecoversMissedEvents(t *testing.T) {
	mem := service.NewMemory()
	store, _ := newTestStore(t, mem)

	require.NoError(t, store.Load(context.Background(), Filter{}))
	require.NoError(t, store.Subscribe(context.Background()))
	require.NoError(t, <-store.WaitConnState(ConnConnected, time.Second))

	// A write the live feed never announced.
	mem.PutSilent(makeRecord("", types.StatusPending))

	// The next heartbeat tick re-fetches and picks it up.
	require.Eventually(t, func() bool {
		return len(store.Records()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
