package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/floradistro/ordsync/types"
)

// EventSink receives change events after the Memory store commits a
// mutation. The channel.Publisher satisfies the producing pattern; tests use
// a sink to feed a fake channel or to deliberately drop events when
// simulating live-feed gaps.
type EventSink interface {
	EmitInsert(record types.Record)
	EmitUpdate(record types.Record)
	EmitDelete(id string)
}

// Memory implements types.RecordService with an in-process authoritative
// store.
//
// FetchAll returns deep copies so callers never alias store-owned memory,
// and Put/Remove let tests and examples mutate the remote state directly —
// including "silently" (with a nil sink), which simulates a change event
// the live feed dropped.
type Memory struct {
	mu      sync.RWMutex
	records map[string]types.Record
	order   []string // identity list, newest first
	sink    EventSink
}

var _ types.RecordService = (*Memory)(nil)

// NewMemory creates an empty in-memory record service.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]types.Record),
	}
}

// SetEventSink attaches a sink that receives change events after each
// committed mutation. Pass nil to detach.
func (m *Memory) SetEventSink(sink EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sink = sink
}

// FetchAll returns deep copies of all records matching the filter, newest
// first.
func (m *Memory) FetchAll(_ context.Context, filter types.Filter) ([]types.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Record, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		if filter.Matches(r) {
			out = append(out, r.Clone())
		}
	}

	return out, nil
}

// UpdateField persists a single field-level patch and emits an update event.
func (m *Memory) UpdateField(_ context.Context, id string, field types.Field, value any) error {
	m.mu.Lock()

	r, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", types.ErrRecordNotFound, id)
	}

	if err := r.PatchField(field, value); err != nil {
		m.mu.Unlock()
		return err
	}
	m.records[id] = r

	sink := m.sink
	event := partialEvent(r)
	m.mu.Unlock()

	if sink != nil {
		sink.EmitUpdate(event)
	}

	return nil
}

// Put stores a record, minting an identity when the record has none, and
// emits an insert or update event. Returns the stored record's identity.
func (m *Memory) Put(record types.Record) string {
	m.mu.Lock()

	if record.ID == "" {
		record.ID = types.NewID()
	}

	_, existed := m.records[record.ID]
	m.records[record.ID] = record.Clone()
	if !existed {
		m.order = append([]string{record.ID}, m.order...)
	}

	sink := m.sink
	event := partialEvent(record)
	m.mu.Unlock()

	if sink != nil {
		if existed {
			sink.EmitUpdate(event)
		} else {
			sink.EmitInsert(event)
		}
	}

	return record.ID
}

// PutSilent stores a record without emitting any event, simulating a change
// the live feed missed.
func (m *Memory) PutSilent(record types.Record) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.ID == "" {
		record.ID = types.NewID()
	}

	if _, existed := m.records[record.ID]; !existed {
		m.order = append([]string{record.ID}, m.order...)
	}
	m.records[record.ID] = record.Clone()

	return record.ID
}

// Remove deletes a record and emits a delete event. Removing an unknown
// identity is a no-op.
func (m *Memory) Remove(id string) {
	m.mu.Lock()

	if _, ok := m.records[id]; !ok {
		m.mu.Unlock()
		return
	}

	delete(m.records, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	sink := m.sink
	m.mu.Unlock()

	if sink != nil {
		sink.EmitDelete(id)
	}
}

// Get returns a deep copy of the record with the given identity.
func (m *Memory) Get(id string) (types.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return types.Record{}, false
	}

	return r.Clone(), true
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.records)
}

// partialEvent strips derived fields from a record, matching what a live
// change event carries on the wire.
func partialEvent(r types.Record) types.Record {
	out := r.Clone()
	out.CustomerName = nil
	out.CustomerPhone = nil
	out.LocationSummary = nil

	return out
}
