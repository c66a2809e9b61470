package usecase

import (
	"context"
	"log/slog"

	"github.com/otterhq/otter/internal/otp/entity"
	"github.com/otterhq/otter/internal/pkg/goerror"
)

type GenerateTOTPInput struct {
	// Timeout is the step width in seconds.
	Timeout uint `validate:"required,gt=0,lte=86400"`
}

// GenerateTOTP creates a time-based record and returns the code for the
// current step.
func (s *Usecase) GenerateTOTP(ctx context.Context, in GenerateTOTPInput) (*GenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "GenerateTOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, err := s.secrets.Generate(s.secretLength())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := s.deriver.TOTPCode(secret, s.clock.Now(), in.Timeout)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive totp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	rec := entity.Record{
		ID:              s.uuid.Generate(),
		Secret:          secret,
		Mode:            entity.ModeTime,
		IntervalSeconds: in.Timeout,
	}

	if err := s.createRecord(ctx, &rec); err != nil {
		slog.ErrorContext(ctx, "failed to create totp record", "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishGenerated(ctx, &rec)

	return &GenerateOutput{RecordID: rec.ID, Code: code}, nil
}
