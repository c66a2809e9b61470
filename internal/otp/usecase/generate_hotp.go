package usecase

import (
	"context"
	"log/slog"

	"github.com/otterhq/otter/internal/otp/entity"
	"github.com/otterhq/otter/internal/pkg/goerror"
)

type GenerateHOTPInput struct {
	// Count seeds the record counter, the first accepted moving factor.
	Count uint64
}

type GenerateOutput struct {
	RecordID string
	Code     string
}

// GenerateHOTP creates a counter-based record and returns its first code.
func (s *Usecase) GenerateHOTP(ctx context.Context, in GenerateHOTPInput) (*GenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "GenerateHOTP")
	defer span.End()

	secret, err := s.secrets.Generate(s.secretLength())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp secret", "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := s.deriver.HOTPCode(secret, in.Count)
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive hotp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	rec := entity.Record{
		ID:      s.uuid.Generate(),
		Secret:  secret,
		Mode:    entity.ModeCounter,
		Counter: in.Count,
	}

	if err := s.createRecord(ctx, &rec); err != nil {
		slog.ErrorContext(ctx, "failed to create hotp record", "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishGenerated(ctx, &rec)

	return &GenerateOutput{RecordID: rec.ID, Code: code}, nil
}
