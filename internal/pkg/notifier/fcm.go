package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrFCMServerKeyRequired is returned when the server key is missing.
	ErrFCMServerKeyRequired = errors.New("fcm server key is required")
	// ErrFCMNoTarget is returned when both Token and Topic are empty.
	ErrFCMNoTarget = errors.New("no delivery target provided")
)

const defaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCM is a Notifier implementation backed by the FCM legacy HTTP API.
type FCM struct {
	endpoint  string
	serverKey string
	client    *http.Client
}

// FCMConfig configures the FCM implementation.
type FCMConfig struct {
	// Endpoint overrides the FCM send URL, mainly for tests.
	Endpoint string
	// ServerKey authenticates against the FCM API.
	ServerKey string
	// Timeout bounds each send call.
	Timeout time.Duration
}

// NewFCM builds an FCM notifier.
func NewFCM(cfg FCMConfig) (*FCM, error) {
	if cfg.ServerKey == "" {
		return nil, ErrFCMServerKeyRequired
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultFCMEndpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &FCM{
		endpoint:  endpoint,
		serverKey: cfg.ServerKey,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

type fcmPayload struct {
	To           string            `json:"to"`
	Notification *fcmNotification  `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// Send dispatches the message to a device token or topic.
func (f *FCM) Send(ctx context.Context, msg Message) error {
	target := msg.Token
	if target == "" && msg.Topic != "" {
		target = "/topics/" + msg.Topic
	}
	if target == "" {
		return ErrFCMNoTarget
	}

	payload := fcmPayload{
		To:   target,
		Data: msg.Data,
	}
	if msg.Title != "" || msg.Body != "" {
		payload.Notification = &fcmNotification{Title: msg.Title, Body: msg.Body}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+f.serverKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fcm send failed with status %d", resp.StatusCode)
	}

	return nil
}

// Close implements io.Closer.
func (f *FCM) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
