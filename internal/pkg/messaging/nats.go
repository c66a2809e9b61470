package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired indicates the NATS config has no server URL.
var ErrNATSURLRequired = errors.New("messaging: nats url required")

// NATSConfig configures the NATS publisher.
type NATSConfig struct {
	// URL is the server address, e.g. nats://localhost:4222. Required.
	URL string
	// Options are passed through to nats.Connect.
	Options []nats.Option
}

// NATS publishes messages over a single core NATS connection.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to the server and returns a publisher.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, err
	}

	return &NATS{conn: conn}, nil
}

// Publish sends one message on the subject named by topic and flushes
// the connection so the caller knows the server has received it.
func (n *NATS) Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}

	out := nats.NewMsg(topic)
	out.Data = msg.Body
	for _, h := range msg.Headers {
		out.Header.Add(h.Key, string(h.Value))
	}

	if err := n.conn.PublishMsg(out); err != nil {
		return PublishResult{}, err
	}

	if err := n.flush(ctx); err != nil {
		return PublishResult{}, err
	}

	return PublishResult{Topic: topic, Timestamp: time.Now()}, nil
}

// Close drains the connection, letting buffered publishes finish.
func (n *NATS) Close() error {
	if n.conn == nil || n.conn.IsClosed() {
		return nil
	}

	return n.conn.Drain()
}

func (n *NATS) flush(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		return n.conn.FlushTimeout(time.Until(deadline))
	}

	return n.conn.Flush()
}
