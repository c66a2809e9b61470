package fcm

import (
	"context"

	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/notifier"
	"github.com/otterhq/otter/internal/push/entity"
	"go.opentelemetry.io/otel/codes"
)

// Push adapts the notifier contract to the usecase sender port.
type Push struct {
	client notifier.Notifier
	ins    instrument.Instrumentation
}

func New(client notifier.Notifier, ins instrument.Instrumentation) *Push {
	return &Push{client: client, ins: ins}
}

// Send delivers the confirmation code to the channel. Principals without a
// device token are addressed through their topic.
func (p *Push) Send(ctx context.Context, ch entity.Channel, code string) error {
	ctx, span := p.ins.Tracer("push.outbound.fcm").Start(ctx, "Send")
	defer span.End()

	msg := notifier.Message{
		Token: ch.DeviceToken,
		Title: "Confirmation code",
		Body:  "Your confirmation code is " + code,
		Data:  map[string]string{"refer_code": code},
	}
	if msg.Token == "" {
		msg.Topic = ch.Principal
	}

	if err := p.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
