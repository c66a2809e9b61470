package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"

	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/push/entity"
)

// referCodeLength is the symbol count of the human-typed confirmation code.
// Low entropy on purpose; the code only gates a low-stakes referral
// confirmation.
const referCodeLength = 4

type SendInput struct {
	// RecordID names the OTP record whose principal should be notified.
	RecordID string `validate:"required,uuid"`
}

type SendOutput struct {
	ReferCode string
}

// Send issues a fresh confirmation code for the record's bound principal
// and pushes it over the registered channel. At most one code is pending
// per principal; a re-send replaces the previous one. A notifier failure is
// returned to the caller, never masked.
func (s *Usecase) Send(ctx context.Context, in SendInput) (*SendOutput, error) {
	ctx, span := s.startSpan(ctx, "Send")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var principal string
	err := s.retryOnTimeout(ctx, func(ctx context.Context) error {
		var errGet error
		principal, errGet = s.repoDB.GetRecordPrincipal(ctx, in.RecordID)
		return errGet
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "send against unknown record", "record_id", in.RecordID)
		return nil, goerror.NewRejected()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve record principal", "record_id", in.RecordID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if principal == "" {
		slog.WarnContext(ctx, "record has no bound principal", "record_id", in.RecordID)
		return nil, goerror.NewBusiness("no push channel registered for record", goerror.CodeRejected)
	}

	ch, err := s.repoDB.GetChannel(ctx, principal)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "principal has no push channel", "record_id", in.RecordID)
		return nil, goerror.NewBusiness("no push channel registered for record", goerror.CodeRejected)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve push channel", "record_id", in.RecordID, "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := s.secrets.Generate(referCodeLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate refer code", "record_id", in.RecordID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refer code", "record_id", in.RecordID, "error", err)
		return nil, goerror.NewServer(err)
	}

	delivery := entity.Delivery{
		ID:        s.uid.Generate(),
		RecordID:  in.RecordID,
		Principal: principal,
		Status:    entity.DeliveryStatusSent,
		SentAt:    s.clock.Now(),
	}

	pending := entity.PendingCode{
		RecordID:   in.RecordID,
		DeliveryID: delivery.ID,
		CodeHash:   base64.StdEncoding.EncodeToString(codeHash),
	}
	if err := s.repoCache.SetPendingCode(ctx, principal, pending, s.referCodeTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to store pending refer code", "record_id", in.RecordID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.sender.Send(ctx, *ch, code); err != nil {
		slog.ErrorContext(ctx, "push delivery failed", "record_id", in.RecordID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.CreateDelivery(ctx, delivery); err != nil {
		slog.WarnContext(ctx, "failed to record delivery", "delivery_id", delivery.ID, "error", err)
	}

	s.publishDelivery(ctx, &delivery)

	return &SendOutput{ReferCode: code}, nil
}
