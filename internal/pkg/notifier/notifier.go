package notifier

import (
	"context"
	"io"
)

// Message represents a push notification payload.
//
// Exactly one of Token or Topic addresses the delivery; Token wins when both
// are set.
type Message struct {
	// Token is the device registration token.
	Token string
	// Topic is a topic name used when no device token is known.
	Topic string
	// Title is the notification title.
	Title string
	// Body is the human-readable notification text.
	Body string
	// Data carries opaque key/value pairs alongside the notification.
	Data map[string]string
}

// Notifier abstracts a push provider (FCM, third-party API, etc).
type Notifier interface {
	io.Closer
	// Send dispatches the given message using the underlying provider.
	Send(ctx context.Context, msg Message) error
}
