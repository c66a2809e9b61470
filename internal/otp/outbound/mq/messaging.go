package mq

import (
	"context"
	"encoding/json"

	"github.com/otterhq/otter/internal/otp/usecase"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/messaging"
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

func (m *Messaging) PublishOtpGenerated(ctx context.Context, msg usecase.OtpGeneratedEvent) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishOtpGenerated")
	defer span.End()

	body, err := json.Marshal(event.OtpGeneratedMessage{
		RecordID: msg.RecordID,
		Mode:     msg.Mode,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.OtpGeneratedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishOtpVerified(ctx context.Context, msg usecase.OtpVerifiedEvent) error {
	ctx, span := m.ins.Tracer("otp.outbound.mq").Start(ctx, "PublishOtpVerified")
	defer span.End()

	body, err := json.Marshal(event.OtpVerifiedMessage{
		RecordID: msg.RecordID,
		Mode:     msg.Mode,
		Accepted: msg.Accepted,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.OtpVerifiedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
