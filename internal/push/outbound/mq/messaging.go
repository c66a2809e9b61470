package mq

import (
	"context"
	"encoding/json"

	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/messaging"
	"github.com/otterhq/otter/internal/push/usecase"
	"github.com/otterhq/otter/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishPushDelivery(ctx context.Context, msg usecase.PushDeliveryEvent) error {
	ctx, span := m.ins.Tracer("push.outbound.mq").Start(ctx, "PublishPushDelivery")
	defer span.End()

	body, err := json.Marshal(event.PushDeliveryMessage{
		DeliveryID: msg.DeliveryID,
		RecordID:   msg.RecordID,
		Principal:  msg.Principal,
		Status:     msg.Status,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.PushDeliveryDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
