package channel

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/floradistro/ordsync/types"
)

// Common errors for channel operations.
var (
	ErrConnRequired  = errors.New("NATS connection is required")
	ErrTopicRequired = errors.New("topic is required")
)

// deletePayload is the wire shape of a delete event.
type deletePayload struct {
	ID string `json:"id"`
}

// Channel is an open NATS change channel. It implements types.ChannelHandle.
type Channel struct {
	conn     *nats.Conn
	topic    string
	handlers types.ChannelHandlers
	logger   types.Logger

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

// Compile-time assertion that Channel implements ChannelHandle.
var _ types.ChannelHandle = (*Channel)(nil)

// Open subscribes to the topic's change-event subjects and confirms the
// subscription with a server round-trip.
//
// The handshake outcome is reported through handlers.OnStatus: subscribed on
// success, timeout when the round-trip does not complete within
// handshakeTimeout, error for any other transport failure. On handshake
// failure the partially created subscriptions are drained and an error is
// returned; no status other than the failure status is delivered.
//
// Parameters:
//   - conn: NATS connection
//   - topic: change-event topic (e.g. "orders.store1")
//   - handshakeTimeout: server round-trip deadline
//   - handlers: event and status callbacks
//   - logger: structured logger (must be non-nil)
func Open(conn *nats.Conn, topic string, handshakeTimeout time.Duration, handlers types.ChannelHandlers, logger types.Logger) (*Channel, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	if topic == "" {
		return nil, ErrTopicRequired
	}

	c := &Channel{
		conn:     conn,
		topic:    topic,
		handlers: handlers,
		logger:   logger,
	}

	subjects := []struct {
		suffix  string
		handler nats.MsgHandler
	}{
		{"insert", c.handleRecord(types.OpInsert)},
		{"update", c.handleRecord(types.OpUpdate)},
		{"delete", c.handleDelete},
	}

	for _, s := range subjects {
		sub, err := conn.Subscribe(topic+"."+s.suffix, s.handler)
		if err != nil {
			c.drain()
			c.status(types.ChannelError, err)

			return nil, fmt.Errorf("failed to subscribe to %s.%s: %w", topic, s.suffix, err)
		}
		c.subs = append(c.subs, sub)
	}

	// Handshake: a flush round-trip confirms the server registered the
	// subscriptions before any status is reported.
	if err := conn.FlushTimeout(handshakeTimeout); err != nil {
		c.drain()

		status := types.ChannelError
		if errors.Is(err, nats.ErrTimeout) {
			status = types.ChannelTimeout
		}
		c.status(status, err)

		return nil, fmt.Errorf("channel handshake failed for %s: %w", topic, err)
	}

	c.status(types.ChannelSubscribed, nil)

	return c, nil
}

// Close tears down the channel's subscriptions and reports ChannelClosed.
// Safe to call more than once; only the first call has any effect.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.drain()
	c.status(types.ChannelClosed, nil)

	return err
}

// handleRecord decodes a record payload and dispatches it to the insert or
// update handler.
func (c *Channel) handleRecord(op types.Operation) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var rec types.Record
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			c.logger.Error("failed to decode change event",
				"topic", c.topic,
				"op", string(op),
				"error", err,
			)

			return
		}

		switch op {
		case types.OpInsert:
			if c.handlers.OnInsert != nil {
				c.handlers.OnInsert(rec)
			}
		case types.OpUpdate:
			if c.handlers.OnUpdate != nil {
				c.handlers.OnUpdate(rec)
			}
		default:
		}
	}
}

// handleDelete decodes a delete payload and dispatches the identity.
func (c *Channel) handleDelete(msg *nats.Msg) {
	var payload deletePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		c.logger.Error("failed to decode delete event",
			"topic", c.topic,
			"error", err,
		)

		return
	}

	if c.handlers.OnDelete != nil {
		c.handlers.OnDelete(payload.ID)
	}
}

// status delivers a status callback if one is registered.
func (c *Channel) status(s types.ChannelStatus, err error) {
	if c.handlers.OnStatus != nil {
		c.handlers.OnStatus(s, err)
	}
}

// drain unsubscribes all subscriptions, keeping the first error.
func (c *Channel) drain() error {
	var firstErr error
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	c.subs = nil

	return firstErr
}

// Publisher emits change events in the channel wire format.
//
// Backends publish through this after committing a change to the
// authoritative store; tests use it to drive the consuming side.
type Publisher struct {
	conn  *nats.Conn
	topic string
}

// NewPublisher creates a publisher for a topic.
func NewPublisher(conn *nats.Conn, topic string) (*Publisher, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	if topic == "" {
		return nil, ErrTopicRequired
	}

	return &Publisher{conn: conn, topic: topic}, nil
}

// Insert publishes an insert event for the record.
func (p *Publisher) Insert(record types.Record) error {
	return p.publishRecord("insert", record)
}

// Update publishes an update event for the record.
func (p *Publisher) Update(record types.Record) error {
	return p.publishRecord("update", record)
}

// Delete publishes a delete event for the identity.
func (p *Publisher) Delete(id string) error {
	data, err := json.Marshal(deletePayload{ID: id})
	if err != nil {
		return fmt.Errorf("failed to encode delete event: %w", err)
	}

	return p.conn.Publish(p.topic+".delete", data)
}

func (p *Publisher) publishRecord(suffix string, record types.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}

	return p.conn.Publish(p.topic+"."+suffix, data)
}
