// Package notifier defines the contracts for sending push notifications.
//
// The main purpose is to keep the rest of the application independent from a
// specific push provider. Use cases work with the Notifier interface and
// Message payload; the concrete delivery mechanism (FCM, another vendor API)
// is implemented elsewhere in this package.
package notifier
