package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/floradistro/ordsync/types"
)

// Common errors for NATS request-reply operations.
var (
	ErrConnRequired   = errors.New("NATS connection is required")
	ErrPrefixRequired = errors.New("subject prefix is required")

	// ErrRemote wraps an error message returned by the remote responder.
	ErrRemote = errors.New("remote service error")
)

// Wire shapes for the request-reply protocol.
//
// Subjects:
//
//	{prefix}.fetch   fetchRequest  -> fetchResponse
//	{prefix}.update  updateRequest -> updateResponse
type (
	fetchRequest struct {
		Filter types.Filter `json:"filter"`
	}

	fetchResponse struct {
		Records []types.Record `json:"records"`
		Error   string         `json:"error,omitempty"`
	}

	updateRequest struct {
		ID    string          `json:"id"`
		Field types.Field     `json:"field"`
		Value json.RawMessage `json:"value"`
	}

	updateResponse struct {
		Error string `json:"error,omitempty"`
	}
)

// NATSClient implements types.RecordService over NATS request-reply.
type NATSClient struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
}

var _ types.RecordService = (*NATSClient)(nil)

// NewNATSClient creates a request-reply client for a backend serving the
// record service protocol under the given subject prefix.
//
// Parameters:
//   - conn: NATS connection
//   - prefix: subject prefix (e.g. "orders.rpc")
//   - timeout: per-call deadline applied when the caller's context has none
func NewNATSClient(conn *nats.Conn, prefix string, timeout time.Duration) (*NATSClient, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	if prefix == "" {
		return nil, ErrPrefixRequired
	}

	return &NATSClient{conn: conn, prefix: prefix, timeout: timeout}, nil
}

// FetchAll requests the full authoritative set matching the filter.
func (c *NATSClient) FetchAll(ctx context.Context, filter types.Filter) ([]types.Record, error) {
	data, err := json.Marshal(fetchRequest{Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("failed to encode fetch request: %w", err)
	}

	msg, err := c.request(ctx, c.prefix+".fetch", data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrFetchFailed, err)
	}

	var resp fetchResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode fetch response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}

	return resp.Records, nil
}

// UpdateField persists a single field-level patch via the remote responder.
func (c *NATSClient) UpdateField(ctx context.Context, id string, field types.Field, value any) error {
	rawValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode field value: %w", err)
	}

	data, err := json.Marshal(updateRequest{ID: id, Field: field, Value: rawValue})
	if err != nil {
		return fmt.Errorf("failed to encode update request: %w", err)
	}

	msg, err := c.request(ctx, c.prefix+".update", data)
	if err != nil {
		return fmt.Errorf("update request failed: %w", err)
	}

	var resp updateResponse
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return fmt.Errorf("failed to decode update response: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}

	return nil
}

// request issues a NATS request, applying the client's default timeout when
// the context carries no deadline.
func (c *NATSClient) request(ctx context.Context, subject string, data []byte) (*nats.Msg, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	return c.conn.RequestWithContext(ctx, subject, data)
}

// Responder serves a types.RecordService over the request-reply protocol,
// making any service implementation (typically Memory) reachable by a
// NATSClient. Used by tests and examples to stand in for the real backend.
type Responder struct {
	conn    *nats.Conn
	prefix  string
	service types.RecordService
	logger  types.Logger

	subs []*nats.Subscription
}

// NewResponder creates a responder serving the given record service.
func NewResponder(conn *nats.Conn, prefix string, svc types.RecordService, logger types.Logger) (*Responder, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	if prefix == "" {
		return nil, ErrPrefixRequired
	}
	if svc == nil {
		return nil, types.ErrServiceRequired
	}

	return &Responder{conn: conn, prefix: prefix, service: svc, logger: logger}, nil
}

// Start subscribes to the protocol subjects.
func (r *Responder) Start() error {
	fetchSub, err := r.conn.Subscribe(r.prefix+".fetch", r.handleFetch)
	if err != nil {
		return fmt.Errorf("failed to subscribe to fetch subject: %w", err)
	}
	r.subs = append(r.subs, fetchSub)

	updateSub, err := r.conn.Subscribe(r.prefix+".update", r.handleUpdate)
	if err != nil {
		_ = fetchSub.Unsubscribe()
		return fmt.Errorf("failed to subscribe to update subject: %w", err)
	}
	r.subs = append(r.subs, updateSub)

	return nil
}

// Stop unsubscribes from the protocol subjects.
func (r *Responder) Stop() error {
	var firstErr error
	for _, sub := range r.subs {
		if err := sub.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.subs = nil

	return firstErr
}

func (r *Responder) handleFetch(msg *nats.Msg) {
	var req fetchRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.reply(msg, fetchResponse{Error: "malformed fetch request"})
		return
	}

	records, err := r.service.FetchAll(context.Background(), req.Filter)
	if err != nil {
		r.reply(msg, fetchResponse{Error: err.Error()})
		return
	}

	r.reply(msg, fetchResponse{Records: records})
}

func (r *Responder) handleUpdate(msg *nats.Msg) {
	var req updateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.reply(msg, updateResponse{Error: "malformed update request"})
		return
	}

	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		r.reply(msg, updateResponse{Error: "malformed field value"})
		return
	}

	if err := r.service.UpdateField(context.Background(), req.ID, req.Field, value); err != nil {
		r.reply(msg, updateResponse{Error: err.Error()})
		return
	}

	r.reply(msg, updateResponse{})
}

func (r *Responder) reply(msg *nats.Msg, resp any) {
	data, err := json.Marshal(resp)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("failed to encode response", "error", err)
		}

		return
	}

	if err := msg.Respond(data); err != nil && r.logger != nil {
		r.logger.Error("failed to send response", "error", err)
	}
}
