// Package messaging provides a broker-agnostic publisher for domain
// events. Callers hand it a topic and an OutgoingMessage; the backend
// (Kafka or NATS) takes care of connection handling, partitioning and
// header propagation.
//
// The package is publish-only. Services that need to consume should
// attach their own subscribers to the same broker; keeping the facade
// one-directional keeps its lifecycle trivial: construct once via
// NewFromDriver, Publish from anywhere, Close on shutdown.
package messaging
