package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the fulfillment state of an order record.
//
// Statuses are string-typed so wire payloads remain readable and stable
// across versions.
type Status string

// Order statuses.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus represents the payment state of an order record.
type PaymentStatus string

// Payment statuses.
const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Field identifies a single patchable record field for optimistic mutation.
type Field string

// Patchable fields.
const (
	FieldStatus          Field = "status"
	FieldPaymentStatus   Field = "payment_status"
	FieldCustomerName    Field = "customer_name"
	FieldCustomerPhone   Field = "customer_phone"
	FieldLocationSummary Field = "location_summary"
)

// Record is the synchronized domain entity (an order).
//
// Base fields (ID, Status, PaymentStatus, CreatedAt) are present on every
// payload, including incremental change events. Derived fields are populated
// only by a full fetch (server-side joins) and are pointer-typed so that a
// payload which omits them (nil) can be distinguished from one that
// explicitly clears them (pointer to the empty string).
type Record struct {
	ID            string        `json:"id"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`

	// Derived fields: populated by full fetches only, never erased by a
	// partial event that omits them.
	CustomerName    *string `json:"customer_name,omitempty"`
	CustomerPhone   *string `json:"customer_phone,omitempty"`
	LocationSummary *string `json:"location_summary,omitempty"`
}

// NewID mints a new opaque record identity.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of the record. Pointer fields are re-allocated so
// the copy never aliases memory owned by the synchronized collection.
func (r Record) Clone() Record {
	out := r
	out.CustomerName = clonePtr(r.CustomerName)
	out.CustomerPhone = clonePtr(r.CustomerPhone)
	out.LocationSummary = clonePtr(r.LocationSummary)

	return out
}

// Merge combines an incoming partial record into the receiver and returns the
// result.
//
// Base fields are always taken from the incoming record. Each derived field
// is taken from the incoming record when present (non-nil pointer) and
// preserved from the receiver when absent. An incoming pointer to an empty
// string is a legitimate explicit clear and is honored.
//
// This is the central correctness rule of the reconciler: a live-update event
// carries fewer fields than a full row fetch, and must never erase derived
// display data that a previous full fetch populated.
func (r Record) Merge(incoming Record) Record {
	out := incoming.Clone()
	out.CustomerName = mergeDerived(r.CustomerName, incoming.CustomerName)
	out.CustomerPhone = mergeDerived(r.CustomerPhone, incoming.CustomerPhone)
	out.LocationSummary = mergeDerived(r.LocationSummary, incoming.LocationSummary)

	return out
}

// PatchField applies a single field-level patch to the record in place.
//
// Used by optimistic mutation before the remote persist call. Returns
// ErrUnknownField for fields outside the patchable set and
// ErrInvalidFieldValue when the value's type does not match the field.
func (r *Record) PatchField(field Field, value any) error {
	switch field {
	case FieldStatus:
		s, ok := asString(value)
		if !ok {
			return fmt.Errorf("%w: field %q requires a string, got %T", ErrInvalidFieldValue, field, value)
		}
		r.Status = Status(s)
	case FieldPaymentStatus:
		s, ok := asString(value)
		if !ok {
			return fmt.Errorf("%w: field %q requires a string, got %T", ErrInvalidFieldValue, field, value)
		}
		r.PaymentStatus = PaymentStatus(s)
	case FieldCustomerName:
		s, ok := asString(value)
		if !ok {
			return fmt.Errorf("%w: field %q requires a string, got %T", ErrInvalidFieldValue, field, value)
		}
		r.CustomerName = &s
	case FieldCustomerPhone:
		s, ok := asString(value)
		if !ok {
			return fmt.Errorf("%w: field %q requires a string, got %T", ErrInvalidFieldValue, field, value)
		}
		r.CustomerPhone = &s
	case FieldLocationSummary:
		s, ok := asString(value)
		if !ok {
			return fmt.Errorf("%w: field %q requires a string, got %T", ErrInvalidFieldValue, field, value)
		}
		r.LocationSummary = &s
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	return nil
}

// Filter scopes a bulk fetch to a subset of the authoritative store.
//
// An empty filter matches everything. Scope is an opaque partition key (e.g.
// a store or tenant identifier); Statuses, when non-empty, restricts results
// to the listed statuses.
type Filter struct {
	Scope    string   `json:"scope,omitempty"`
	Statuses []Status `json:"statuses,omitempty"`
}

// Matches reports whether the record satisfies the status portion of the
// filter. Scope matching is the remote service's concern; Matches only
// evaluates what the client can decide locally.
func (f Filter) Matches(r Record) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if r.Status == s {
			return true
		}
	}

	return false
}

func mergeDerived(existing, incoming *string) *string {
	if incoming != nil {
		return clonePtr(incoming)
	}

	return clonePtr(existing)
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p

	return &v
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case Status:
		return string(v), true
	case PaymentStatus:
		return string(v), true
	case *string:
		if v == nil {
			return "", false
		}

		return *v, true
	default:
		return "", false
	}
}
