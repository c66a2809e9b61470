package messaging

import (
	"context"
	"time"
)

// Header is a single key/value pair attached to a published message.
// Backends map it onto their native header representation.
type Header struct {
	Key   string
	Value []byte
}

// OutgoingMessage is a message handed to Publish.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte
	// Key is an optional partitioning key. Kafka uses it to pick a
	// partition; NATS ignores it.
	Key []byte
	// Headers are propagated to the broker as message headers.
	Headers []Header
}

// PublishResult reports where a message ended up, as far as the
// backend can tell. Fields not supported by a backend are zero.
type PublishResult struct {
	// Topic is the destination the message was written to.
	Topic string
	// Partition is the Kafka partition the message landed on.
	Partition int
	// Timestamp is when the backend accepted the message.
	Timestamp time.Time
}

// Publisher writes messages to a named topic or subject.
type Publisher interface {
	// Publish sends one message and blocks until the backend has
	// accepted it or ctx is done.
	Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error)
}

// Messaging is the full facade: a Publisher that can be shut down.
type Messaging interface {
	Publisher

	// Close flushes pending writes and releases broker connections.
	Close() error
}
