package reconcile

import "github.com/floradistro/ordsync/types"

// Insert applies an insert event to the collection and returns the result.
//
// If a record with the same identity already exists, the event is treated as
// an update (merge per the derived-field preservation rule), keeping the
// record at its current position. Otherwise the record is prepended:
// newly arrived records sort newest-first.
//
// Insert payloads from the transport carry base fields only; the caller is
// expected to follow an insert with a silent refresh that backfills derived
// fields from a full fetch.
func Insert(records []types.Record, incoming types.Record) []types.Record {
	for i, existing := range records {
		if existing.ID == incoming.ID {
			out := cloneAll(records)
			out[i] = existing.Merge(incoming)

			return out
		}
	}

	out := make([]types.Record, 0, len(records)+1)
	out = append(out, incoming.Clone())
	for _, r := range records {
		out = append(out, r.Clone())
	}

	return out
}

// Update applies an update event to the collection and returns the result.
//
// The existing record is located by identity and merged with the incoming
// partial record: base fields are overwritten, derived fields are preserved
// whenever the incoming value is absent. If no record matches, the event is
// a no-op — the record will arrive via the next refresh.
func Update(records []types.Record, incoming types.Record) []types.Record {
	for i, existing := range records {
		if existing.ID == incoming.ID {
			out := cloneAll(records)
			out[i] = existing.Merge(incoming)

			return out
		}
	}

	return cloneAll(records)
}

// Delete removes the record with the given identity and returns the result.
// Deleting an unknown identity is a no-op.
func Delete(records []types.Record, id string) []types.Record {
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if r.ID == id {
			continue
		}
		out = append(out, r.Clone())
	}

	return out
}

func cloneAll(records []types.Record) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}

	return out
}
