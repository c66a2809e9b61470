package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/push/entity"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "push:pending:"

// Cache holds the single pending confirmation code per principal. Expiry is
// delegated to the key TTL; consumption is a compare-and-delete on the
// delivery id so a code can only ever be taken once.
type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("push.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SetPendingCode stores pc as the principal's only pending code, replacing
// any previous one.
func (c *Cache) SetPendingCode(ctx context.Context, principal string, pc entity.PendingCode, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SetPendingCode")
	defer func() { c.endSpan(span, err) }()

	body, err := json.Marshal(pc)
	if err != nil {
		return err
	}

	err = c.mapError(c.client.Set(ctx, keyPrefix+principal, body, ttl).Err())
	return err
}

// GetPendingCode reads the pending code without consuming it.
func (c *Cache) GetPendingCode(ctx context.Context, principal string) (pc *entity.PendingCode, err error) {
	ctx, span := c.startSpan(ctx, "GetPendingCode")
	defer func() { c.endSpan(span, err) }()

	body, err := c.client.Get(ctx, keyPrefix+principal).Bytes()
	if err = c.mapError(err); err != nil {
		return nil, err
	}

	return c.decode(body)
}

// TakePendingCode consumes the pending code, but only while it still
// belongs to deliveryID. A concurrent resend replaces the key with a fresh
// code; that newer code must survive a stale take, so the delete runs in a
// WATCH transaction keyed on the observed delivery.
func (c *Cache) TakePendingCode(ctx context.Context, principal string, deliveryID int64) (pc *entity.PendingCode, err error) {
	ctx, span := c.startSpan(ctx, "TakePendingCode")
	defer func() { c.endSpan(span, err) }()

	key := keyPrefix + principal

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		body, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}

		got, err := c.decode(body)
		if err != nil {
			return err
		}
		if got.DeliveryID != deliveryID {
			return goerror.ErrNotFound
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		}); err != nil {
			return err
		}

		pc = got
		return nil
	}, key)

	if err = c.mapError(err); err != nil {
		return nil, err
	}

	return pc, nil
}

func (c *Cache) decode(body []byte) (*entity.PendingCode, error) {
	var pc entity.PendingCode
	if err := json.Unmarshal(body, &pc); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (c *Cache) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return goerror.ErrNotFound
	}

	// The watched key changed between read and delete, meaning a newer
	// code took its place.
	if errors.Is(err, redis.TxFailedErr) {
		return goerror.ErrNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return goerror.ErrTimeout
	}

	return err
}
