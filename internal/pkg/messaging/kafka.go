package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired indicates the Kafka config has no brokers.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers required")

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	// Brokers is the bootstrap broker list. Required.
	Brokers []string
	// BatchTimeout bounds how long a writer buffers before flushing.
	// Zero means flush immediately, which keeps Publish synchronous.
	BatchTimeout time.Duration
}

// Kafka publishes messages through kafka-go, keeping one writer per
// topic so repeated publishes reuse connections.
type Kafka struct {
	cfg KafkaConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	closed  bool
}

// NewKafka validates cfg and returns a publisher. No connection is
// made until the first Publish.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{cfg: cfg, writers: make(map[string]*kafka.Writer)}, nil
}

// Publish writes one message to topic and waits for broker
// acknowledgement.
func (k *Kafka) Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	w, err := k.writer(topic)
	if err != nil {
		return PublishResult{}, err
	}

	out := kafka.Message{Key: msg.Key, Value: msg.Body}
	for _, h := range msg.Headers {
		out.Headers = append(out.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	if err := w.WriteMessages(ctx, out); err != nil {
		return PublishResult{}, err
	}

	return PublishResult{Topic: topic, Timestamp: time.Now()}, nil
}

// Close flushes and closes every topic writer, returning the joined
// errors.
func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil
	}
	k.closed = true

	var errs []error
	for topic, w := range k.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(k.writers, topic)
	}

	return errors.Join(errs...)
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, errors.New("messaging: kafka publisher closed")
	}

	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(k.cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: k.cfg.BatchTimeout,
	}
	k.writers[topic] = w

	return w, nil
}
